package localdb

import (
	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/core/user"
)

// collection file names
const (
	studentsFile   = "students"
	attendanceFile = "attendance"
	usersFile      = "users"
)

type StudentAdapter struct {
	db *DB
}

func NewStudentAdapter(db *DB) *StudentAdapter {
	return &StudentAdapter{db: db}
}

func (a *StudentAdapter) LoadStudents() ([]student.Student, error) {
	var studs []student.Student
	if err := a.db.Load(studentsFile, &studs); err != nil {
		return nil, err
	}
	return studs, nil
}

func (a *StudentAdapter) SaveStudents(studs []student.Student) error {
	return a.db.Save(studentsFile, studs)
}

type EntryAdapter struct {
	db *DB
}

func NewEntryAdapter(db *DB) *EntryAdapter {
	return &EntryAdapter{db: db}
}

func (a *EntryAdapter) LoadEntries() ([]attendance.Entry, error) {
	var ents []attendance.Entry
	if err := a.db.Load(attendanceFile, &ents); err != nil {
		return nil, err
	}
	return ents, nil
}

func (a *EntryAdapter) SaveEntries(ents []attendance.Entry) error {
	return a.db.Save(attendanceFile, ents)
}

type UserAdapter struct {
	db *DB
}

func NewUserAdapter(db *DB) *UserAdapter {
	return &UserAdapter{db: db}
}

// userRecord carries the password hash, which user.User hides from its own
// JSON representation.
type userRecord struct {
	user.User
	PasswordHash []byte `json:"password_hash,omitempty"`
}

func (a *UserAdapter) LoadUsers() ([]user.User, error) {
	var recs []userRecord
	if err := a.db.Load(usersFile, &recs); err != nil {
		return nil, err
	}
	usrs := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		usr := rec.User
		usr.PasswordHash = rec.PasswordHash
		usrs = append(usrs, usr)
	}
	return usrs, nil
}

func (a *UserAdapter) SaveUsers(usrs []user.User) error {
	recs := make([]userRecord, 0, len(usrs))
	for _, usr := range usrs {
		recs = append(recs, userRecord{User: usr, PasswordHash: usr.PasswordHash})
	}
	return a.db.Save(usersFile, recs)
}
