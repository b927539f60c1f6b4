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
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// Entry is a non-zero cell in coordinate format.
type Entry struct {
	Row   int32
	Col   int32
	Value float32
}

// SparseMatrix is a matrix in coordinate (COO) format. Entries may repeat a coordinate.
type SparseMatrix struct {
	Rows    int
	Cols    int
	Entries []Entry
}

func NewSparseMatrix(rows, cols int) *SparseMatrix {
	return &SparseMatrix{Rows: rows, Cols: cols}
}

func (m *SparseMatrix) Add(row, col int32, value float32) {
	m.Entries = append(m.Entries, Entry{Row: row, Col: col, Value: value})
}

// Validate checks that every entry falls inside the shape.
func (m *SparseMatrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return errors.NotValidf("shape (%d, %d)", m.Rows, m.Cols)
	}
	for _, entry := range m.Entries {
		if entry.Row < 0 || int(entry.Row) >= m.Rows || entry.Col < 0 || int(entry.Col) >= m.Cols {
			return &ShapeError{Row: int(entry.Row), Col: int(entry.Col), Rows: m.Rows, Cols: m.Cols}
		}
	}
	return nil
}

// ToDense materializes the matrix. Values of repeated coordinates are summed and absent cells are 0.
func (m *SparseMatrix) ToDense() ([][]float32, error) {
	dense, _, err := m.toDense()
	return dense, err
}

func (m *SparseMatrix) toDense() (dense [][]float32, duplicates int, err error) {
	if err = m.Validate(); err != nil {
		return nil, 0, err
	}
	data := make([]float32, m.Rows*m.Cols)
	dense = make([][]float32, m.Rows)
	for i := range dense {
		dense[i] = data[i*m.Cols : (i+1)*m.Cols : (i+1)*m.Cols]
	}
	occupied := bitset.New(uint(m.Rows * m.Cols))
	for _, entry := range m.Entries {
		offset := uint(entry.Row)*uint(m.Cols) + uint(entry.Col)
		if occupied.Test(offset) {
			duplicates++
		} else {
			occupied.Set(offset)
		}
		dense[entry.Row][entry.Col] += entry.Value
	}
	return dense, duplicates, nil
}

// Sparsity returns the percentage of zero cells. An empty matrix has sparsity 0.
func Sparsity(dense [][]float32) float64 {
	var zero, total int
	for _, row := range dense {
		total += len(row)
		for _, value := range row {
			if value == 0 {
				zero++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(zero) / float64(total) * 100
}
