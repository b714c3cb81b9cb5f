// Package storage defines the persistence contracts the record stores consume.
// Backends persist whole collection snapshots: a failed save must leave the
// previously persisted state in place, and failures are reported as
// core.PersistenceError, never collapsed into an empty collection.
package storage

import (
	"github.com/trezcool/daftari/core/attendance"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/core/user"
)

type (
	StudentAdapter interface {
		LoadStudents() ([]student.Student, error)
		SaveStudents(studs []student.Student) error
	}

	EntryAdapter interface {
		LoadEntries() ([]attendance.Entry, error)
		SaveEntries(ents []attendance.Entry) error
	}

	UserAdapter interface {
		LoadUsers() ([]user.User, error)
		SaveUsers(usrs []user.User) error
	}
)
