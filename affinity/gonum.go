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
	"github.com/gorse-io/affinity/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// ToGonum copies a dense affinity matrix into a gonum matrix for linear algebra.
func ToGonum(m [][]float32) (*mat.Dense, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, errors.NotValidf("empty matrix")
	}
	rows, cols := len(m), len(m[0])
	dense := mat.NewDense(rows, cols, nil)
	for i, row := range m {
		if len(row) != cols {
			return nil, &ShapeError{Row: i, Col: len(row), Rows: rows, Cols: cols}
		}
		for j, value := range row {
			dense.Set(i, j, float64(value))
		}
	}
	return dense, nil
}

// FromGonum copies a gonum matrix into a dense affinity matrix.
func FromGonum(m mat.Matrix) [][]float32 {
	rows, cols := m.Dims()
	dense := make([][]float32, rows)
	for i := range dense {
		dense[i] = make([]float32, cols)
		for j := range dense[i] {
			dense[i][j] = float32(m.At(i, j))
		}
	}
	return dense
}

// DisassembleMatrix is Disassemble for gonum matrices, e.g. predictions of a factorization model.
func (b *Builder[U, I]) DisassembleMatrix(m mat.Matrix, users *dataset.Index[U], items *dataset.Index[I], kind Kind) (*Table[U, I], error) {
	return b.Disassemble(FromGonum(m), users, items, kind)
}
