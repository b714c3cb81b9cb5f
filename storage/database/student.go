package database

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/storage"
)

type studentRow struct {
	ID          string    `db:"id"`
	Pos         int       `db:"pos"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	RollNo      string    `db:"roll_no"`
	AdmissionNo string    `db:"admission_no"`
	ClassLevel  string    `db:"class_level"`
	Section     string    `db:"section"`
	DateOfBirth time.Time `db:"date_of_birth"`
	Picture     []byte    `db:"picture"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		RollNo:      r.RollNo,
		AdmissionNo: r.AdmissionNo,
		ClassLevel:  r.ClassLevel,
		Section:     r.Section,
		DateOfBirth: r.DateOfBirth,
		Picture:     r.Picture,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newStudentRow(stud student.Student, pos int) studentRow {
	return studentRow{
		ID:          stud.ID,
		Pos:         pos,
		FirstName:   stud.FirstName,
		LastName:    stud.LastName,
		RollNo:      stud.RollNo,
		AdmissionNo: stud.AdmissionNo,
		ClassLevel:  stud.ClassLevel,
		Section:     stud.Section,
		DateOfBirth: stud.DateOfBirth,
		Picture:     stud.Picture,
		CreatedAt:   stud.CreatedAt,
		UpdatedAt:   stud.UpdatedAt,
	}
}

type StudentAdapter struct {
	db *sqlx.DB
}

var _ storage.StudentAdapter = (*StudentAdapter)(nil) // interface compliance check

func NewStudentAdapter(db *sqlx.DB) *StudentAdapter {
	return &StudentAdapter{db: db}
}

func (a *StudentAdapter) LoadStudents() ([]student.Student, error) {
	var rows []studentRow
	if err := a.db.Select(&rows, "SELECT * FROM student ORDER BY pos"); err != nil {
		return nil, core.NewPersistenceError("load", err)
	}

	studs := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		studs = append(studs, row.toStudent())
	}
	return studs, nil
}

func (a *StudentAdapter) SaveStudents(studs []student.Student) error {
	tx, err := a.db.Beginx()
	if err != nil {
		return core.NewPersistenceError("save", err)
	}

	if _, err = tx.Exec("DELETE FROM student"); err != nil {
		_ = tx.Rollback()
		return core.NewPersistenceError("save", err)
	}
	for pos, stud := range studs {
		_, err = tx.NamedExec(
			`INSERT INTO student (id, pos, first_name, last_name, roll_no, admission_no, class_level, section, date_of_birth, picture, created_at, updated_at)
			 VALUES (:id, :pos, :first_name, :last_name, :roll_no, :admission_no, :class_level, :section, :date_of_birth, :picture, :created_at, :updated_at)`,
			newStudentRow(stud, pos),
		)
		if err != nil {
			_ = tx.Rollback()
			return core.NewPersistenceError("save", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return core.NewPersistenceError("save", err)
	}
	return nil
}
