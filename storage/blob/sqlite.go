// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"bytes"
	"database/sql"
	"io"

	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

// SQLite keeps blobs in a single table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if _, err = db.Exec(`
CREATE TABLE IF NOT EXISTS blobs (
	name TEXT PRIMARY KEY,
	data BLOB
);`); err != nil {
		_ = db.Close()
		return nil, errors.Trace(err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Open(name string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("blob %s", name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SQLite) Create(name string) (io.WriteCloser, chan struct{}, error) {
	w := newUploadWriter(name, readAll(func(data []byte) error {
		_, err := s.db.Exec(`
INSERT INTO blobs (name, data) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data
`, name, data)
		return err
	}))
	return w, w.done, nil
}
