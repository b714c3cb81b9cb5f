package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/daftari/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// Entry records one student's attendance for one calendar day.
// At most one entry may exist per (student, date).
type Entry struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"` // day precision, UTC
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Summary tallies a student's entries per status.
type Summary struct {
	StudentID string `json:"student_id"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	Late      int    `json:"late"`
	Excused   int    `json:"excused"`
}

// DayOf truncates t to day precision in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewEntry contains information needed to mark attendance.
type NewEntry struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,attstatus"`
	Note      string    `json:"note"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	ne.Status = core.CleanString(ne.Status, true /* lower */)
	ne.Note = core.CleanString(ne.Note)
	if !ne.Date.IsZero() {
		ne.Date = DayOf(ne.Date)
	}
	return validate.Struct(ne)
}

// UpdateEntry defines what may be changed on an existing Entry;
// student and date are fixed.
type UpdateEntry struct {
	Status string `json:"status" validate:"omitempty,attstatus"`
	Note   string `json:"note"`
}

func (ue *UpdateEntry) Validate(orig Entry, validate *validator.Validate) error {
	if s := core.CleanString(ue.Status, true /* lower */); s != "" {
		ue.Status = s
	} else {
		ue.Status = orig.Status
	}
	ue.Note = core.CleanString(ue.Note)
	return validate.Struct(ue)
}
