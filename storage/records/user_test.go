package records

import (
	"testing"
	"time"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/user"
	localdb "github.com/trezcool/daftari/storage/local"
	testutil "github.com/trezcool/daftari/tests"
)

func newTestUserStore(t *testing.T) *UserStore {
	db, err := localdb.Open(&core.Config{Storage: core.StorageConfig{Dir: t.TempDir()}})
	if err != nil {
		t.Fatalf("localdb.Open() failed: %v", err)
	}
	store, err := NewUserStore(localdb.NewUserAdapter(db))
	if err != nil {
		t.Fatalf("NewUserStore() failed: %v", err)
	}
	return store
}

func TestUserStore_CreateGet(t *testing.T) {
	store := newTestUserStore(t)

	usr := testutil.CreateUser(t, store, "Awa", "awa", "awa@test.cd", "", nil, true)
	if usr.ID == "" {
		t.Fatal("CreateUser() did not assign an ID")
	}

	got, err := store.GetUserByID(usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if got.Username != "awa" {
		t.Errorf("GetUserByID() Username = %q, want %q", got.Username, "awa")
	}

	if _, err = store.GetUserByUsernameOrEmail("awa"); err != nil {
		t.Errorf("GetUserByUsernameOrEmail() (username) failed: %v", err)
	}
	if _, err = store.GetUserByUsernameOrEmail("awa@test.cd"); err != nil {
		t.Errorf("GetUserByUsernameOrEmail() (email) failed: %v", err)
	}
	if _, err = store.GetUserByUsernameOrEmail("nope"); err != user.ErrNotFound {
		t.Errorf("GetUserByUsernameOrEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUserStore_CheckUsernameUniqueness(t *testing.T) {
	store := newTestUserStore(t)

	usr := testutil.CreateUser(t, store, "Awa", "awa", "awa@test.cd", "", nil, true)
	testutil.CreateUser(t, store, "Ben", "", "ben@test.cd", "", nil, true)

	if err := store.CheckUsernameUniqueness("awa", ""); err != user.ErrUsernameExists {
		t.Errorf("CheckUsernameUniqueness() error = %v, want ErrUsernameExists", err)
	}
	if err := store.CheckUsernameUniqueness("", "ben@test.cd"); err != user.ErrEmailExists {
		t.Errorf("CheckUsernameUniqueness() error = %v, want ErrEmailExists", err)
	}

	// empty values never collide, even against users with empty usernames
	if err := store.CheckUsernameUniqueness("", ""); err != nil {
		t.Errorf("CheckUsernameUniqueness() (empty) error = %v, want nil", err)
	}

	// a user is allowed to keep their own username
	if err := store.CheckUsernameUniqueness("awa", "awa@test.cd", usr); err != nil {
		t.Errorf("CheckUsernameUniqueness() (excluded) error = %v, want nil", err)
	}
}

func TestUserStore_FilterUsers(t *testing.T) {
	store := newTestUserStore(t)

	now := time.Now().UTC()
	awa := testutil.CreateUser(t, store, "Awa Kalenga", "awa", "awa@test.cd", "", user.AdminRoles, true, now.AddDate(0, 0, -10))
	ben := testutil.CreateUser(t, store, "Ben Ilunga", "ben", "ben@test.cd", "", user.TeacherRoles, true, now.AddDate(0, 0, -5))
	cya := testutil.CreateUser(t, store, "Cya Mbuyi", "cya", "cya@test.cd", "", nil, false, now)

	isActive := true
	tests := []struct {
		name   string
		filter user.QueryFilter
		want   []string // expected IDs
	}{
		{"empty filter returns all", user.QueryFilter{}, []string{awa.ID, ben.ID, cya.ID}},
		{"search name", user.QueryFilter{Search: "kalenga"}, []string{awa.ID}},
		{"search username", user.QueryFilter{Search: "BEN"}, []string{ben.ID}},
		{"search email", user.QueryFilter{Search: "cya@"}, []string{cya.ID}},
		{"search no match", user.QueryFilter{Search: "zzz"}, nil},
		{"role prefix", user.QueryFilter{Roles: []string{user.RoleAdmin}}, []string{awa.ID}},
		{"is active", user.QueryFilter{IsActive: &isActive}, []string{awa.ID, ben.ID}},
		{"created from", user.QueryFilter{CreatedFrom: now.AddDate(0, 0, -5)}, []string{ben.ID, cya.ID}},
		{"created to", user.QueryFilter{CreatedTo: now.AddDate(0, 0, -5)}, []string{awa.ID, ben.ID}},
		{
			"combined",
			user.QueryFilter{Search: "test.cd", IsActive: &isActive, CreatedFrom: now.AddDate(0, 0, -7)},
			[]string{ben.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usrs, err := store.FilterUsers(tt.filter)
			if err != nil {
				t.Fatalf("FilterUsers() failed: %v", err)
			}
			var got []string
			for _, u := range usrs {
				got = append(got, u.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("FilterUsers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FilterUsers() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestUserStore_UpdateUser(t *testing.T) {
	store := newTestUserStore(t)

	usr := testutil.CreateUser(t, store, "Awa", "awa", "awa@test.cd", "secret", user.TeacherRoles, true)
	origHash := usr.PasswordHash

	// only set fields are saved
	lastLogin := time.Now().UTC()
	updated, err := store.UpdateUser(user.User{ID: usr.ID, Name: "Awa K.", LastLogin: lastLogin}, nil)
	if err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	if updated.Name != "Awa K." {
		t.Errorf("UpdateUser() Name = %q, want %q", updated.Name, "Awa K.")
	}
	if updated.Username != "awa" || updated.Email != "awa@test.cd" {
		t.Errorf("UpdateUser() clobbered unset fields: %q %q", updated.Username, updated.Email)
	}
	if !updated.LastLogin.Equal(lastLogin) {
		t.Errorf("UpdateUser() LastLogin = %v, want %v", updated.LastLogin, lastLogin)
	}
	if string(updated.PasswordHash) != string(origHash) {
		t.Error("UpdateUser() changed PasswordHash without a new one")
	}
	if len(updated.Roles) != len(user.TeacherRoles) {
		t.Errorf("UpdateUser() Roles = %v, want %v", updated.Roles, user.TeacherRoles)
	}

	// deactivation
	isActive := false
	updated, err = store.UpdateUser(user.User{ID: usr.ID}, &isActive)
	if err != nil {
		t.Fatalf("UpdateUser() (deactivate) failed: %v", err)
	}
	if updated.IsActive {
		t.Error("UpdateUser() did not deactivate the user")
	}

	if _, err = store.UpdateUser(user.User{ID: "nope"}, nil); err != user.ErrNotFound {
		t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}

func TestUserStore_DeleteUsersByID(t *testing.T) {
	store := newTestUserStore(t)

	usr1 := testutil.CreateUser(t, store, "Awa", "awa", "awa@test.cd", "", nil, true)
	usr2 := testutil.CreateUser(t, store, "Ben", "ben", "ben@test.cd", "", nil, true)

	// unknown ids are ignored
	if err := store.DeleteUsersByID(usr1.ID, "nope"); err != nil {
		t.Fatalf("DeleteUsersByID() failed: %v", err)
	}
	if _, err := store.GetUserByID(usr1.ID); err != user.ErrNotFound {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUserByID(usr2.ID); err != nil {
		t.Errorf("GetUserByID() (survivor) failed: %v", err)
	}
}
