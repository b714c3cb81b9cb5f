package student

import (
	"errors"

	"github.com/trezcool/daftari/core"
)

var (
	// errors
	ErrNotFound          = errors.New("student not found")
	ErrRollNoExists      = errors.New("a student with this roll number already exists")
	ErrAdmissionNoExists = errors.New("a student with this admission number already exists")
)

type (
	// Repository is the authoritative record store. Roll and admission numbers
	// are unique case-insensitively among live records; CreateStudent and
	// UpdateStudent fail fast with ErrRollNoExists/ErrAdmissionNoExists and
	// leave the collection unmodified.
	Repository interface {
		// CheckUniqueness reports a collision of rollNo or admissionNo
		// (case-insensitive) against all records except excluded ones.
		CheckUniqueness(rollNo, admissionNo string, excluded ...Student) error
		CreateStudent(stud Student) (Student, error)
		// QueryAllStudents returns the collection in insertion order.
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		GetStudentByRollNo(rollNo string) (Student, error)
		GetStudentByAdmissionNo(admissionNo string) (Student, error)
		UpdateStudent(stud Student) (Student, error)
		DeleteStudentsByID(ids ...string) error
		// ReplaceAll swaps the whole collection (bulk import).
		ReplaceAll(studs []Student) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckUniqueness maps repository collision sentinels to a ValidationError
// naming the colliding field.
func (svc *Service) CheckUniqueness(rollNo, admissionNo string, excluded ...Student) error {
	if err := svc.repo.CheckUniqueness(rollNo, admissionNo, excluded...); err != nil {
		return wrapCollisionErr(err)
	}
	return nil
}

// IsRollNoTaken is a read-only pre-check for form validation; a record
// identified by excludeID is ignored. It does not lock the key: the
// authoritative check happens again inside Create/Update.
func (svc *Service) IsRollNoTaken(rollNo, excludeID string) (bool, error) {
	return svc.isKeyTaken(svc.repo.GetStudentByRollNo, rollNo, excludeID)
}

// IsAdmissionNoTaken is the admission-number counterpart of IsRollNoTaken.
func (svc *Service) IsAdmissionNoTaken(admissionNo, excludeID string) (bool, error) {
	return svc.isKeyTaken(svc.repo.GetStudentByAdmissionNo, admissionNo, excludeID)
}

func (svc *Service) isKeyTaken(get func(string) (Student, error), value, excludeID string) (bool, error) {
	stud, err := get(core.CleanString(value))
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return stud.ID != excludeID, nil
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	stud := Student{
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		RollNo:      ns.RollNo,
		AdmissionNo: ns.AdmissionNo,
		ClassLevel:  ns.ClassLevel,
		Section:     ns.Section,
		DateOfBirth: ns.DateOfBirth,
		Picture:     ns.Picture,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stud, err := svc.repo.CreateStudent(stud)
	if err != nil {
		return Student{}, wrapCollisionErr(err)
	}
	return stud, nil
}

func (svc *Service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetByRollNo(rollNo string) (Student, error) {
	return svc.repo.GetStudentByRollNo(core.CleanString(rollNo))
}

func (svc *Service) GetByAdmissionNo(admissionNo string) (Student, error) {
	return svc.repo.GetStudentByAdmissionNo(core.CleanString(admissionNo))
}

// Filter returns a derived view of the collection; the collection itself is
// never reordered.
func (svc *Service) Filter(filter QueryFilter) ([]Student, error) {
	studs, err := svc.repo.QueryAllStudents()
	if err != nil {
		return nil, err
	}
	return FilterAndSort(studs, filter), nil
}

func (svc *Service) Update(id string, us UpdateStudent) (Student, error) {
	stud := Student{
		ID:          id,
		FirstName:   us.FirstName,
		LastName:    us.LastName,
		RollNo:      us.RollNo,
		AdmissionNo: us.AdmissionNo,
		ClassLevel:  us.ClassLevel,
		Section:     us.Section,
		DateOfBirth: us.DateOfBirth,
		Picture:     us.Picture,
		UpdatedAt:   NowFunc().UTC(),
	}
	stud, err := svc.repo.UpdateStudent(stud)
	if err != nil {
		return Student{}, wrapCollisionErr(err)
	}
	return stud, nil
}

func wrapCollisionErr(err error) error {
	var field string
	switch err {
	case ErrRollNoExists:
		field = "roll_no"
	case ErrAdmissionNoExists:
		field = "admission_no"
	default:
		return err
	}
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteStudentsByID(ids...)
}

// Import replaces the whole collection with the given records.
func (svc *Service) Import(studs []Student) error {
	return svc.repo.ReplaceAll(studs)
}
