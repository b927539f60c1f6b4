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

package affinity

import (
	"encoding/binary"
	"io"

	"github.com/gorse-io/affinity/common/encoding"
	"github.com/juju/errors"
)

// MarshalMatrix writes the shape of a dense matrix followed by its rows.
func MarshalMatrix(w io.Writer, m [][]float32) error {
	rows, cols := int32(len(m)), int32(0)
	if rows > 0 {
		cols = int32(len(m[0]))
	}
	for i, row := range m {
		if int32(len(row)) != cols {
			return &ShapeError{Row: i, Col: len(row), Rows: int(rows), Cols: int(cols)}
		}
	}
	if err := binary.Write(w, binary.LittleEndian, [2]int32{rows, cols}); err != nil {
		return errors.Trace(err)
	}
	return encoding.WriteMatrix(w, m)
}

// matrixChunk is the number of values read at once, so that memory grows with the payload instead of the
// declared shape.
const matrixChunk = 4096

// UnmarshalMatrix reads a dense matrix written by MarshalMatrix. Shapes with more than maxCells cells are rejected
// before reading rows, counting a row without columns as one cell. A non-positive maxCells disables the check.
func UnmarshalMatrix(r io.Reader, maxCells int) ([][]float32, error) {
	var shape [2]int32
	if err := binary.Read(r, binary.LittleEndian, &shape); err != nil {
		return nil, errors.Trace(err)
	}
	rows, cols := int(shape[0]), int(shape[1])
	if rows < 0 || cols < 0 {
		return nil, errors.NotValidf("shape (%d, %d)", rows, cols)
	}
	if maxCells > 0 && rows*max(cols, 1) > maxCells {
		return nil, errors.NotValidf("shape (%d, %d) over %d cells", rows, cols, maxCells)
	}
	if cols == 0 {
		return make([][]float32, rows), nil
	}
	m := make([][]float32, 0, min(rows, matrixChunk))
	for i := 0; i < rows; i++ {
		row := make([]float32, 0, min(cols, matrixChunk))
		for len(row) < cols {
			chunk := make([]float32, min(cols-len(row), matrixChunk))
			if err := encoding.ReadMatrix(r, [][]float32{chunk}); err != nil {
				return nil, errors.Annotatef(err, "failed to read row %d", i)
			}
			row = append(row, chunk...)
		}
		m = append(m, row)
	}
	return m, nil
}
