package records

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/daftari/core/user"
	"github.com/trezcool/daftari/storage"
)

type UserStore struct {
	mutex   sync.RWMutex
	adapter storage.UserAdapter
	rows    map[string]*user.User
	order   []string // insertion order
}

var _ user.Repository = (*UserStore)(nil) // interface compliance check

func NewUserStore(adapter storage.UserAdapter) (*UserStore, error) {
	usrs, err := adapter.LoadUsers()
	if err != nil {
		return nil, err
	}

	store := &UserStore{
		adapter: adapter,
		rows:    make(map[string]*user.User, len(usrs)),
		order:   make([]string, 0, len(usrs)),
	}
	for _, usr := range usrs {
		usr := usr
		store.insert(&usr)
	}
	return store, nil
}

func (store *UserStore) insert(usr *user.User) {
	store.rows[usr.ID] = usr
	store.order = append(store.order, usr.ID)
}

func (store *UserStore) remove(id string) {
	delete(store.rows, id)
	for i, oid := range store.order {
		if oid == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
}

func (store *UserStore) query() []user.User {
	usrs := make([]user.User, 0, len(store.order))
	for _, id := range store.order {
		usrs = append(usrs, *store.rows[id])
	}
	return usrs
}

func (store *UserStore) persist() error {
	return store.adapter.SaveUsers(store.query())
}

func (store *UserStore) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range store.query() {
		if username != "" && usr.Username == username && !isUserExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email && !isUserExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (store *UserStore) CreateUser(usr user.User) (user.User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	usr.ID = uuid.New().String()
	store.insert(&usr)

	if err := store.persist(); err != nil {
		store.remove(usr.ID)
		return user.User{}, err
	}
	return usr, nil
}

func (store *UserStore) QueryAllUsers() ([]user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.query(), nil
}

func (store *UserStore) GetUserByID(id string) (user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	if usr, ok := store.rows[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (store *UserStore) GetUserByUsername(username string) (user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, usr := range store.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (store *UserStore) GetUserByEmail(email string) (user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, usr := range store.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (store *UserStore) GetUserByUsernameOrEmail(username string) (user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, usr := range store.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (store *UserStore) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	usrs := store.query()

	// users with search keyword matching any Name, Username or Email
	if filter.Search != "" {
		var filtered []user.User
		search := strings.ToLower(filter.Search)
		for _, u := range usrs {
			if strings.Contains(strings.ToLower(u.Username), search) ||
				strings.Contains(strings.ToLower(u.Email), search) ||
				strings.Contains(strings.ToLower(u.Name), search) {
				filtered = append(filtered, u)
			}
		}
		usrs = filtered
	}
	// users with any of the specified roles
	if usrs != nil && len(filter.Roles) > 0 {
		var filtered []user.User
		for _, u := range usrs {
			for _, r := range filter.Roles {
				if u.RoleStartsWith(r) {
					filtered = append(filtered, u)
					break
				}
			}
		}
		usrs = filtered
	}
	if usrs != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, u := range usrs {
			if u.IsActive == *filter.IsActive {
				filtered = append(filtered, u)
			}
		}
		usrs = filtered
	}
	if usrs != nil && !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedFrom.UTC()
		for _, u := range usrs {
			if u.CreatedAt.Equal(timeUTC) || u.CreatedAt.After(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		usrs = filtered
	}
	if usrs != nil && !filter.CreatedTo.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedTo.UTC()
		for _, u := range usrs {
			if u.CreatedAt.Before(timeUTC) || u.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		usrs = filtered
	}

	return usrs, nil
}

func (store *UserStore) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	origUsr, ok := store.rows[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// only save set fields
	prev := *origUsr
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	origUsr.UpdatedAt = usr.UpdatedAt

	if err := store.persist(); err != nil {
		*origUsr = prev
		return user.User{}, err
	}
	return *origUsr, nil
}

func (store *UserStore) DeleteUsersByID(ids ...string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	prevOrder := append([]string(nil), store.order...)
	removed := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := store.rows[id]; ok {
			removed = append(removed, usr)
			store.remove(id)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	if err := store.persist(); err != nil {
		for _, usr := range removed {
			store.rows[usr.ID] = usr
		}
		store.order = prevOrder
		return err
	}
	return nil
}

func isUserExcluded(usr user.User, excludedUsers []user.User, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excludedUsers[i].ID >= usr.ID })
	return idx < n && excludedUsers[idx].ID == usr.ID
}
