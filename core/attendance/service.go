package attendance

import (
	"errors"
	"time"

	"github.com/trezcool/daftari/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("attendance entry not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this student and date")
)

type (
	Repository interface {
		CreateEntry(ent Entry) (Entry, error)
		GetEntryByID(id string) (Entry, error)
		GetEntryByStudentAndDate(studentID string, date time.Time) (Entry, error)
		// QueryEntriesByDate returns the day's sheet in insertion order.
		QueryEntriesByDate(date time.Time) ([]Entry, error)
		QueryEntriesByStudent(studentID string) ([]Entry, error)
		UpdateEntry(ent Entry) (Entry, error)
		DeleteEntriesByID(ids ...string) error
		DeleteEntriesByStudent(studentID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Mark records attendance for one student on one day. Marking the same
// (student, date) twice fails with a ValidationError on "date".
func (svc *Service) Mark(ne NewEntry) (Entry, error) {
	now := NowFunc().UTC()
	ent := Entry{
		StudentID: ne.StudentID,
		Date:      DayOf(ne.Date),
		Status:    ne.Status,
		Note:      ne.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ent, err := svc.repo.CreateEntry(ent)
	if err != nil {
		if err == ErrAlreadyMarked {
			return Entry{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
		}
		return Entry{}, err
	}
	return ent, nil
}

func (svc *Service) GetByID(id string) (Entry, error) {
	return svc.repo.GetEntryByID(id)
}

func (svc *Service) SheetForDate(date time.Time) ([]Entry, error) {
	return svc.repo.QueryEntriesByDate(DayOf(date))
}

func (svc *Service) StudentHistory(studentID string) ([]Entry, error) {
	return svc.repo.QueryEntriesByStudent(studentID)
}

func (svc *Service) Update(id string, ue UpdateEntry) (Entry, error) {
	ent := Entry{
		ID:        id,
		Status:    ue.Status,
		Note:      ue.Note,
		UpdatedAt: NowFunc().UTC(),
	}
	return svc.repo.UpdateEntry(ent)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteEntriesByID(ids...)
}

// DeleteForStudent drops a student's whole history; called when the student
// record is deleted.
func (svc *Service) DeleteForStudent(studentID string) error {
	return svc.repo.DeleteEntriesByStudent(studentID)
}

// Summarize tallies a student's history per status.
func (svc *Service) Summarize(studentID string) (Summary, error) {
	ents, err := svc.repo.QueryEntriesByStudent(studentID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{StudentID: studentID}
	for _, ent := range ents {
		switch ent.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		}
	}
	return sum, nil
}
