package student

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/daftari/core"
)

// PictureMaxSize caps inline picture payloads at 5 MiB.
const PictureMaxSize = 5 << 20

var (
	// ClassLevels are the allowed class levels.
	ClassLevels = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}

	// Sections are the allowed class sections.
	Sections = []string{"A", "B", "C", "D"}
)

// Student is a single roster record. ID is assigned by the store at creation
// time and is immutable; its numeric component doubles as a creation-order proxy.
type Student struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	RollNo      string    `json:"roll_no"`
	AdmissionNo string    `json:"admission_no"`
	ClassLevel  string    `json:"class_level"`
	Section     string    `json:"section"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Picture     []byte    `json:"picture,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// CreationSeq returns the numeric component of the record ID.
func (s Student) CreationSeq() int {
	seq, _ := strconv.Atoi(s.ID)
	return seq
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName   string    `json:"first_name" validate:"required"`
	LastName    string    `json:"last_name" validate:"required"`
	RollNo      string    `json:"roll_no" validate:"required"`
	AdmissionNo string    `json:"admission_no" validate:"required"`
	ClassLevel  string    `json:"class_level" validate:"required,classlevel"`
	Section     string    `json:"section" validate:"required,section"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required,minage"`
	Picture     []byte    `json:"picture,omitempty" validate:"omitempty,picturesize"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc *Service) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.RollNo = core.CleanString(ns.RollNo)
	ns.AdmissionNo = core.CleanString(ns.AdmissionNo)
	ns.ClassLevel = normalizeClassLevel(core.CleanString(ns.ClassLevel))
	ns.Section = normalizeSection(core.CleanString(ns.Section))

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.RollNo, ns.AdmissionNo)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Empty fields keep their current value; the record ID never changes.
type UpdateStudent struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	RollNo      string    `json:"roll_no"`
	AdmissionNo string    `json:"admission_no"`
	ClassLevel  string    `json:"class_level" validate:"omitempty,classlevel"`
	Section     string    `json:"section" validate:"omitempty,section"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"omitempty,minage"`
	Picture     []byte    `json:"picture,omitempty" validate:"omitempty,picturesize"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc *Service) error {
	if v := core.CleanString(us.FirstName); v != "" {
		us.FirstName = v
	} else {
		us.FirstName = orig.FirstName
	}
	if v := core.CleanString(us.LastName); v != "" {
		us.LastName = v
	} else {
		us.LastName = orig.LastName
	}
	if v := core.CleanString(us.RollNo); v != "" {
		us.RollNo = v
	} else {
		us.RollNo = orig.RollNo
	}
	if v := core.CleanString(us.AdmissionNo); v != "" {
		us.AdmissionNo = v
	} else {
		us.AdmissionNo = orig.AdmissionNo
	}
	if v := normalizeClassLevel(core.CleanString(us.ClassLevel)); v != "" {
		us.ClassLevel = v
	} else {
		us.ClassLevel = orig.ClassLevel
	}
	if v := normalizeSection(core.CleanString(us.Section)); v != "" {
		us.Section = v
	} else {
		us.Section = orig.Section
	}
	if us.DateOfBirth.IsZero() {
		us.DateOfBirth = orig.DateOfBirth
	}
	if us.Picture == nil {
		us.Picture = orig.Picture
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.RollNo, us.AdmissionNo, orig)
}

// Sort keys recognized by QueryFilter.
const (
	SortNameAsc       = "name-asc"
	SortNameDesc      = "name-desc"
	SortRollAsc       = "roll-asc"
	SortRollDesc      = "roll-desc"
	SortCreatedNewest = "created-newest"
	SortCreatedOldest = "created-oldest"
)

// QueryFilter narrows and orders a roster snapshot. All filters are
// AND-combined; empty fields are no-ops. An empty SortKey keeps insertion order.
type QueryFilter struct {
	// Search matches case-insensitively as a substring against the
	// "first last" name concatenation, the roll number and the admission number.
	Search     string `query:"search"`
	ClassLevel string `query:"class_level"`
	Section    string `query:"section"`
	SortKey    string `query:"sort"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassLevel == "" && qf.Section == "" && qf.SortKey == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassLevel = normalizeClassLevel(core.CleanString(qf.ClassLevel))
	qf.Section = normalizeSection(core.CleanString(qf.Section))
	qf.SortKey = core.CleanString(qf.SortKey, true /* lower */)
}
