// Copyright 2022 gorse Project Authors
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

package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteMatrix(t *testing.T) {
	a := [][]float32{{1, 2}, {3, 4}}
	buf := bytes.NewBuffer(nil)
	err := WriteMatrix(buf, a)
	assert.NoError(t, err)
	b := [][]float32{{0, 0}, {0, 0}}
	err = ReadMatrix(buf, b)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteBytes(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteBytes(buf, []byte("hello")))
	assert.NoError(t, WriteBytes(buf, nil))
	data, err := ReadBytes(buf)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	data, err = ReadBytes(buf)
	assert.NoError(t, err)
	assert.Empty(t, data)
	// truncated stream
	buf = bytes.NewBuffer(nil)
	assert.NoError(t, WriteBytes(buf, []byte("hello")))
	_, err = ReadBytes(bytes.NewReader(buf.Bytes()[:6]))
	assert.Error(t, err)
}

func TestWriteGob(t *testing.T) {
	a := map[string]int32{"a": 0, "b": 1}
	buf := bytes.NewBuffer(nil)
	err := WriteGob(buf, a)
	assert.NoError(t, err)
	var b map[string]int32
	err = ReadGob(buf, &b)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFormatFloat32(t *testing.T) {
	assert.Equal(t, "1.5", FormatFloat32(1.5))
	assert.Equal(t, "3", FormatFloat32(3))
}
