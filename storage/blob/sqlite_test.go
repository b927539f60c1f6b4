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
	"io"
	"path"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestSQLite(t *testing.T) {
	client, err := NewSQLite(path.Join(t.TempDir(), "blob.db"))
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, client.Close())
	}()

	// write a blob
	w, done, err := client.Create("test")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	assert.NoError(t, err)
	_, err = w.Write([]byte("world"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	<-done

	// read the blob
	r, err := client.Open("test")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.NoError(t, r.Close())

	// overwrite the blob
	assert.NoError(t, Put(client, "test", []byte("bye")))
	data, err = Get(client, "test")
	assert.NoError(t, err)
	assert.Equal(t, "bye", string(data))

	// missing blob
	_, err = client.Open("missing")
	assert.True(t, errors.Is(err, errors.NotFound))
}
