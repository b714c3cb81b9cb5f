// Package remotedb persists the roster through the REST shim
// (GET/POST/PUT/DELETE /students). Any request failure permanently degrades
// the adapter to its local fallback for the rest of the session; the two
// stores are never reconciled afterwards.
package remotedb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/student"
	"github.com/trezcool/daftari/storage"
)

// Mode is the adapter's persistence mode. The only transition is
// ModeRemote -> ModeLocalFallback, on the first request failure.
type Mode int

const (
	ModeRemote Mode = iota
	ModeLocalFallback
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local-fallback"
}

type StudentAdapter struct {
	mutex    sync.Mutex
	client   *http.Client
	baseURL  string
	fallback storage.StudentAdapter
	logger   core.Logger
	mode     Mode

	// onFallback observes the ModeRemote -> ModeLocalFallback transition.
	onFallback func(error)

	// last collection state seen on the remote side, by ID;
	// SaveStudents reconciles against it with per-record calls.
	known map[string]student.Student
}

var _ storage.StudentAdapter = (*StudentAdapter)(nil) // interface compliance check

func NewStudentAdapter(conf *core.Config, fallback storage.StudentAdapter, logger core.Logger, onFallback func(error)) *StudentAdapter {
	return &StudentAdapter{
		client:     &http.Client{Timeout: conf.Storage.RemoteTimeout},
		baseURL:    conf.Storage.RemoteBaseURL,
		fallback:   fallback,
		logger:     logger,
		onFallback: onFallback,
	}
}

func (a *StudentAdapter) Mode() Mode {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.mode
}

// failover flips the adapter to its local fallback, once and for all.
func (a *StudentAdapter) failover(err error) {
	a.mode = ModeLocalFallback
	a.logger.Warn(fmt.Sprintf("remote storage failed, falling back to local storage for this session: %v", err), err)
	if a.onFallback != nil {
		a.onFallback(err)
	}
}

func (a *StudentAdapter) LoadStudents() ([]student.Student, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.mode == ModeLocalFallback {
		return a.fallback.LoadStudents()
	}

	studs, err := a.fetchAll()
	if err != nil {
		a.failover(err)
		return a.fallback.LoadStudents()
	}

	a.known = make(map[string]student.Student, len(studs))
	for _, stud := range studs {
		a.known[stud.ID] = stud
	}
	return studs, nil
}

func (a *StudentAdapter) SaveStudents(studs []student.Student) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.mode == ModeLocalFallback {
		return a.fallback.SaveStudents(studs)
	}

	if err := a.reconcile(studs); err != nil {
		a.failover(err)
		return a.fallback.SaveStudents(studs)
	}
	return nil
}

func (a *StudentAdapter) fetchAll() ([]student.Student, error) {
	resp, err := a.client.Get(a.baseURL + "/students")
	if err != nil {
		return nil, core.NewPersistenceError("load", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewPersistenceError("load", errors.Errorf("GET /students: %s", resp.Status))
	}

	var studs []student.Student
	if err = json.NewDecoder(resp.Body).Decode(&studs); err != nil {
		return nil, core.NewPersistenceError("load", err)
	}
	return studs, nil
}

// reconcile mirrors the snapshot onto the remote side with per-record calls:
// new records are POSTed, changed ones PUT, and missing ones DELETEd.
func (a *StudentAdapter) reconcile(studs []student.Student) error {
	if a.known == nil {
		remote, err := a.fetchAll()
		if err != nil {
			return err
		}
		a.known = make(map[string]student.Student, len(remote))
		for _, stud := range remote {
			a.known[stud.ID] = stud
		}
	}

	seen := make(map[string]bool, len(studs))
	for _, stud := range studs {
		seen[stud.ID] = true
		prev, exists := a.known[stud.ID]
		switch {
		case !exists:
			if err := a.send(http.MethodPost, "/students", stud, http.StatusCreated); err != nil {
				return err
			}
		case !prev.UpdatedAt.Equal(stud.UpdatedAt):
			if err := a.send(http.MethodPut, "/students/"+stud.ID, stud, http.StatusOK); err != nil {
				return err
			}
		}
		a.known[stud.ID] = stud
	}
	for id := range a.known {
		if !seen[id] {
			if err := a.send(http.MethodDelete, "/students/"+id, nil, http.StatusNoContent); err != nil {
				return err
			}
			delete(a.known, id)
		}
	}
	return nil
}

func (a *StudentAdapter) send(method, path string, body interface{}, wantCode int) error {
	var buff bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buff).Encode(body); err != nil {
			return core.NewPersistenceError("save", err)
		}
	}

	req, err := http.NewRequest(method, a.baseURL+path, &buff)
	if err != nil {
		return core.NewPersistenceError("save", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return core.NewPersistenceError("save", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != wantCode && resp.StatusCode != http.StatusOK {
		return core.NewPersistenceError("save", errors.Errorf("%s %s: %s", method, path, resp.Status))
	}
	return nil
}
