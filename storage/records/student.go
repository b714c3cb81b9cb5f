// Package records holds the authoritative in-memory collections. Each store
// owns its collection exclusively, hands out copies only, and persists a whole
// snapshot through its adapter after every mutation. A failed save rolls the
// in-memory state back so failed operations leave the collection unmodified.
package records

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/storage"
)

type StudentStore struct {
	mutex   sync.RWMutex
	adapter storage.StudentAdapter
	rows    map[string]*student.Student
	order   []string // insertion order
	seq     int
}

var _ student.Repository = (*StudentStore)(nil) // interface compliance check

// NewStudentStore loads the persisted collection through the adapter.
// A load failure is surfaced as-is; it is never treated as an empty roster.
func NewStudentStore(adapter storage.StudentAdapter) (*StudentStore, error) {
	studs, err := adapter.LoadStudents()
	if err != nil {
		return nil, err
	}

	store := &StudentStore{
		adapter: adapter,
		rows:    make(map[string]*student.Student, len(studs)),
		order:   make([]string, 0, len(studs)),
	}
	for _, stud := range studs {
		stud := stud
		store.insert(&stud)
		if seq := stud.CreationSeq(); seq > store.seq {
			store.seq = seq
		}
	}
	return store, nil
}

func (store *StudentStore) insert(stud *student.Student) {
	store.rows[stud.ID] = stud
	store.order = append(store.order, stud.ID)
}

func (store *StudentStore) remove(id string) {
	delete(store.rows, id)
	for i, oid := range store.order {
		if oid == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
}

func (store *StudentStore) query() []student.Student {
	studs := make([]student.Student, 0, len(store.order))
	for _, id := range store.order {
		studs = append(studs, *store.rows[id])
	}
	return studs
}

func (store *StudentStore) persist() error {
	return store.adapter.SaveStudents(store.query())
}

func (store *StudentStore) checkUniqueness(rollNo, admissionNo string, excluded []student.Student) error {
	exclLen := len(excluded)
	if exclLen > 1 {
		sort.Slice(excluded, func(i, j int) bool { return excluded[i].ID < excluded[j].ID })
	}

	for _, stud := range store.query() {
		if strings.EqualFold(stud.RollNo, rollNo) && !isExcluded(stud, excluded, exclLen) {
			return student.ErrRollNoExists
		}
		if strings.EqualFold(stud.AdmissionNo, admissionNo) && !isExcluded(stud, excluded, exclLen) {
			return student.ErrAdmissionNoExists
		}
	}
	return nil
}

func (store *StudentStore) CheckUniqueness(rollNo, admissionNo string, excluded ...student.Student) error {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.checkUniqueness(rollNo, admissionNo, excluded)
}

func (store *StudentStore) CreateStudent(stud student.Student) (student.Student, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if err := store.checkUniqueness(stud.RollNo, stud.AdmissionNo, nil); err != nil {
		return student.Student{}, err
	}

	store.seq++
	stud.ID = strconv.Itoa(store.seq)
	store.insert(&stud)

	if err := store.persist(); err != nil {
		store.remove(stud.ID)
		store.seq--
		return student.Student{}, err
	}
	return stud, nil
}

func (store *StudentStore) QueryAllStudents() ([]student.Student, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.query(), nil
}

func (store *StudentStore) GetStudentByID(id string) (student.Student, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	if stud, ok := store.rows[id]; ok {
		return *stud, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (store *StudentStore) GetStudentByRollNo(rollNo string) (student.Student, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, stud := range store.query() {
		if strings.EqualFold(stud.RollNo, rollNo) {
			return stud, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (store *StudentStore) GetStudentByAdmissionNo(admissionNo string) (student.Student, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, stud := range store.query() {
		if strings.EqualFold(stud.AdmissionNo, admissionNo) {
			return stud, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (store *StudentStore) UpdateStudent(stud student.Student) (student.Student, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	orig, ok := store.rows[stud.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := store.checkUniqueness(stud.RollNo, stud.AdmissionNo, []student.Student{*orig}); err != nil {
		return student.Student{}, err
	}

	// only save set fields; ID and CreatedAt never change
	prev := *orig
	orig.FirstName = stud.FirstName
	orig.LastName = stud.LastName
	orig.RollNo = stud.RollNo
	orig.AdmissionNo = stud.AdmissionNo
	orig.ClassLevel = stud.ClassLevel
	orig.Section = stud.Section
	if !stud.DateOfBirth.IsZero() {
		orig.DateOfBirth = stud.DateOfBirth
	}
	if stud.Picture != nil {
		orig.Picture = stud.Picture
	}
	orig.UpdatedAt = stud.UpdatedAt

	if err := store.persist(); err != nil {
		*orig = prev
		return student.Student{}, err
	}
	return *orig, nil
}

func (store *StudentStore) DeleteStudentsByID(ids ...string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	// fail fast before mutating anything
	for _, id := range ids {
		if _, ok := store.rows[id]; !ok {
			return student.ErrNotFound
		}
	}

	prevOrder := append([]string(nil), store.order...)
	removed := make([]*student.Student, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, store.rows[id])
		store.remove(id)
	}

	if err := store.persist(); err != nil {
		for _, stud := range removed {
			store.rows[stud.ID] = stud
		}
		store.order = prevOrder
		return err
	}
	return nil
}

func (store *StudentStore) ReplaceAll(studs []student.Student) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	prevRows, prevOrder, prevSeq := store.rows, store.order, store.seq

	store.rows = make(map[string]*student.Student, len(studs))
	store.order = make([]string, 0, len(studs))
	store.seq = 0
	for _, stud := range studs {
		stud := stud
		store.insert(&stud)
		if seq := stud.CreationSeq(); seq > store.seq {
			store.seq = seq
		}
	}

	if err := store.persist(); err != nil {
		store.rows, store.order, store.seq = prevRows, prevOrder, prevSeq
		return err
	}
	return nil
}

func isExcluded(stud student.Student, excluded []student.Student, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excluded[i].ID >= stud.ID })
	return idx < n && excluded[idx].ID == stud.ID
}
