// Package localdb is a JSON-file-backed key-value store, one file per
// collection. Writes are atomic (write to a temp file, then rename).
package localdb

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/daftari/core"
)

type DB struct {
	dir string
}

func Open(conf *core.Config) (*DB, error) {
	if err := os.MkdirAll(conf.Storage.Dir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &DB{dir: conf.Storage.Dir}, nil
}

func (db *DB) path(name string) string {
	return filepath.Join(db.dir, name+".json")
}

// Load reads the named collection into v. A missing file is not an error:
// v is left untouched (empty collection).
func (db *DB) Load(name string, v interface{}) error {
	data, err := ioutil.ReadFile(db.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return core.NewPersistenceError("load", err)
	}
	if err = json.Unmarshal(data, v); err != nil {
		return core.NewPersistenceError("load", err)
	}
	return nil
}

// Save replaces the named collection wholesale with v.
func (db *DB) Save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.NewPersistenceError("save", err)
	}

	tmp, err := ioutil.TempFile(db.dir, name+".*.tmp")
	if err != nil {
		return core.NewPersistenceError("save", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return core.NewPersistenceError("save", err)
	}
	if err = tmp.Close(); err != nil {
		return core.NewPersistenceError("save", err)
	}
	if err = os.Rename(tmp.Name(), db.path(name)); err != nil {
		return core.NewPersistenceError("save", err)
	}
	return nil
}
