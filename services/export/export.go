// Package exportsvc reads and writes the roster interchange document, a JSON
// object wrapping the full student collection with an export timestamp and a
// format version.
package exportsvc

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/student"
)

const FormatVersion = "1.0"

// NowFunc facilitates mocking in tests
var NowFunc func() time.Time = time.Now

var ErrMissingStudents = core.NewValidationError(errors.New("document has no \"students\" array"))

type Document struct {
	Students   []student.Student `json:"students"`
	ExportDate time.Time         `json:"exportDate"`
	Version    string            `json:"version"`
}

type Service struct {
	studentSvc *student.Service
}

func NewService(studentSvc *student.Service) *Service {
	return &Service{studentSvc: studentSvc}
}

// Export writes the current roster to w as an interchange document.
func (svc *Service) Export(w io.Writer) error {
	studs, err := svc.studentSvc.QueryAll()
	if err != nil {
		return err
	}
	doc := Document{
		Students:   studs,
		ExportDate: NowFunc().UTC(),
		Version:    FormatVersion,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding export document")
	}
	return nil
}

// Import replaces the whole roster with the document read from r.
// Only the presence of a "students" array is required; the collection is left
// untouched when the document is rejected.
func (svc *Service) Import(r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading import document")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, core.NewValidationError(errors.Wrap(err, "malformed document"))
	}
	rawStuds, ok := probe["students"]
	if !ok || string(rawStuds) == "null" {
		return 0, ErrMissingStudents
	}

	var studs []student.Student
	if err := json.Unmarshal(rawStuds, &studs); err != nil {
		return 0, ErrMissingStudents
	}

	if err := svc.studentSvc.Import(studs); err != nil {
		return 0, err
	}
	return len(studs), nil
}
