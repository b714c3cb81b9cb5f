package records

import (
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/storage"
)

type EntryStore struct {
	mutex   sync.RWMutex
	adapter storage.EntryAdapter
	rows    map[string]*attendance.Entry
	order   []string // insertion order
	seq     int
}

var _ attendance.Repository = (*EntryStore)(nil) // interface compliance check

func NewEntryStore(adapter storage.EntryAdapter) (*EntryStore, error) {
	ents, err := adapter.LoadEntries()
	if err != nil {
		return nil, err
	}

	store := &EntryStore{
		adapter: adapter,
		rows:    make(map[string]*attendance.Entry, len(ents)),
		order:   make([]string, 0, len(ents)),
	}
	for _, ent := range ents {
		ent := ent
		store.insert(&ent)
		if seq, _ := strconv.Atoi(ent.ID); seq > store.seq {
			store.seq = seq
		}
	}
	return store, nil
}

func (store *EntryStore) insert(ent *attendance.Entry) {
	store.rows[ent.ID] = ent
	store.order = append(store.order, ent.ID)
}

func (store *EntryStore) remove(id string) {
	delete(store.rows, id)
	for i, oid := range store.order {
		if oid == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
}

func (store *EntryStore) query() []attendance.Entry {
	ents := make([]attendance.Entry, 0, len(store.order))
	for _, id := range store.order {
		ents = append(ents, *store.rows[id])
	}
	return ents
}

func (store *EntryStore) persist() error {
	return store.adapter.SaveEntries(store.query())
}

func (store *EntryStore) CreateEntry(ent attendance.Entry) (attendance.Entry, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	for _, other := range store.query() {
		if other.StudentID == ent.StudentID && other.Date.Equal(ent.Date) {
			return attendance.Entry{}, attendance.ErrAlreadyMarked
		}
	}

	store.seq++
	ent.ID = strconv.Itoa(store.seq)
	store.insert(&ent)

	if err := store.persist(); err != nil {
		store.remove(ent.ID)
		store.seq--
		return attendance.Entry{}, err
	}
	return ent, nil
}

func (store *EntryStore) GetEntryByID(id string) (attendance.Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	if ent, ok := store.rows[id]; ok {
		return *ent, nil
	}
	return attendance.Entry{}, attendance.ErrNotFound
}

func (store *EntryStore) GetEntryByStudentAndDate(studentID string, date time.Time) (attendance.Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	for _, ent := range store.query() {
		if ent.StudentID == studentID && ent.Date.Equal(date) {
			return ent, nil
		}
	}
	return attendance.Entry{}, attendance.ErrNotFound
}

func (store *EntryStore) QueryEntriesByDate(date time.Time) ([]attendance.Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	ents := make([]attendance.Entry, 0)
	for _, ent := range store.query() {
		if ent.Date.Equal(date) {
			ents = append(ents, ent)
		}
	}
	return ents, nil
}

func (store *EntryStore) QueryEntriesByStudent(studentID string) ([]attendance.Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	ents := make([]attendance.Entry, 0)
	for _, ent := range store.query() {
		if ent.StudentID == studentID {
			ents = append(ents, ent)
		}
	}
	return ents, nil
}

func (store *EntryStore) UpdateEntry(ent attendance.Entry) (attendance.Entry, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	orig, ok := store.rows[ent.ID]
	if !ok {
		return attendance.Entry{}, attendance.ErrNotFound
	}

	// student and date are fixed
	prev := *orig
	orig.Status = ent.Status
	orig.Note = ent.Note
	orig.UpdatedAt = ent.UpdatedAt

	if err := store.persist(); err != nil {
		*orig = prev
		return attendance.Entry{}, err
	}
	return *orig, nil
}

func (store *EntryStore) DeleteEntriesByID(ids ...string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	for _, id := range ids {
		if _, ok := store.rows[id]; !ok {
			return attendance.ErrNotFound
		}
	}
	return store.removeAndPersist(ids)
}

func (store *EntryStore) DeleteEntriesByStudent(studentID string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	var ids []string
	for _, ent := range store.query() {
		if ent.StudentID == studentID {
			ids = append(ids, ent.ID)
		}
	}
	if ids == nil {
		return nil
	}
	return store.removeAndPersist(ids)
}

func (store *EntryStore) removeAndPersist(ids []string) error {
	prevOrder := append([]string(nil), store.order...)
	removed := make([]*attendance.Entry, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, store.rows[id])
		store.remove(id)
	}

	if err := store.persist(); err != nil {
		for _, ent := range removed {
			store.rows[ent.ID] = ent
		}
		store.order = prevOrder
		return err
	}
	return nil
}
