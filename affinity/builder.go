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
	"github.com/gorse-io/affinity/common/log"
	"github.com/gorse-io/affinity/config"
	"github.com/gorse-io/affinity/dataset"
	"go.uber.org/zap"
)

// Kind selects the column name of values when a matrix is mapped back to a table.
type Kind string

const (
	Ratings     Kind = "ratings"
	Predictions Kind = "predictions"
)

// Stats are diagnostics collected while assembling a matrix.
type Stats struct {
	Rows         int
	Cols         int
	Observations int
	// Duplicates is the number of observations sharing a coordinate with an earlier one. Their ratings are summed.
	Duplicates int
	// ZeroRatings is the number of observations rated exactly 0. They are indistinguishable from missing cells.
	ZeroRatings int
	// Sparsity is the percentage of zero cells.
	Sparsity float64
}

// AffinityMatrix is a dense user-item matrix together with the forward maps that produced it.
type AffinityMatrix[U, I comparable] struct {
	Matrix   [][]float32
	UserDict map[U]int32
	ItemDict map[I]int32
	Stats    Stats
}

// Builder converts mapped observations into affinity matrices and back.
type Builder[U, I comparable] struct {
	columns config.ColumnsConfig
}

func NewBuilder[U, I comparable](columns config.ColumnsConfig) *Builder[U, I] {
	return &Builder[U, I]{columns: columns}
}

// Assemble the affinity matrix of shape (users, items) of a mapping. Duplicate (user, item) observations should be
// resolved by the caller, otherwise their ratings are summed.
func (b *Builder[U, I]) Assemble(mapping *dataset.Mapping[U, I]) (*AffinityMatrix[U, I], error) {
	m, err := b.AssembleObservations(mapping.Observations, mapping.CountUsers(), mapping.CountItems())
	if err != nil {
		return nil, err
	}
	m.UserDict = mapping.UserDict()
	m.ItemDict = mapping.ItemDict()
	return m, nil
}

// AssembleObservations builds the affinity matrix from observations annotated with coordinates. A *ShapeError is
// returned if any coordinate falls outside [0, users) x [0, items).
func (b *Builder[U, I]) AssembleObservations(observations []dataset.MappedObservation[U, I], users, items int) (*AffinityMatrix[U, I], error) {
	log.Logger().Info("generate the user/item affinity matrix",
		zap.Int("n_users", users), zap.Int("n_items", items), zap.Int("n_observations", len(observations)))
	sparse := NewSparseMatrix(users, items)
	sparse.Entries = make([]Entry, 0, len(observations))
	stats := Stats{Rows: users, Cols: items, Observations: len(observations)}
	for _, observation := range observations {
		sparse.Add(observation.Row, observation.Col, observation.Rating)
		if observation.Rating == 0 {
			stats.ZeroRatings++
		}
	}
	dense, duplicates, err := sparse.toDense()
	if err != nil {
		return nil, err
	}
	stats.Duplicates = duplicates
	stats.Sparsity = Sparsity(dense)

	if stats.Duplicates > 0 {
		log.Logger().Warn("duplicate user/item observations are summed", zap.Int("n_duplicates", stats.Duplicates))
	}
	if stats.ZeroRatings > 0 {
		log.Logger().Warn("zero ratings are indistinguishable from missing observations",
			zap.Int("n_zero_ratings", stats.ZeroRatings))
	}
	log.Logger().Info("matrix generated", zap.Float64("sparsity", stats.Sparsity))
	return &AffinityMatrix[U, I]{Matrix: dense, Stats: stats}, nil
}

// Disassemble maps non-zero cells of a matrix back to records of original identifiers, scanning rows in order
// and columns ascending. Rows and columns without non-zero cells produce no records. A *LookupError is returned
// if a non-zero cell has no entry in the inverse maps.
func (b *Builder[U, I]) Disassemble(matrix [][]float32, users *dataset.Index[U], items *dataset.Index[I], kind Kind) (*Table[U, I], error) {
	return b.disassemble(matrix, users.ToName, items.ToName, kind)
}

// DisassembleDicts is Disassemble driven by inverse maps such as Mapping.UserBackDict and Mapping.ItemBackDict.
// The maps may be partial as long as every non-zero cell resolves.
func (b *Builder[U, I]) DisassembleDicts(matrix [][]float32, userBackDict map[int32]U, itemBackDict map[int32]I, kind Kind) (*Table[U, I], error) {
	return b.disassemble(matrix, lookup(userBackDict), lookup(itemBackDict), kind)
}

func lookup[T any](backDict map[int32]T) func(int32) (T, bool) {
	return func(number int32) (T, bool) {
		name, ok := backDict[number]
		return name, ok
	}
}

func (b *Builder[U, I]) disassemble(matrix [][]float32, userName func(int32) (U, bool), itemName func(int32) (I, bool), kind Kind) (*Table[U, I], error) {
	table := &Table[U, I]{
		Columns: [3]string{b.columns.User, b.columns.Item, b.valueColumn(kind)},
		Records: make([]Record[U, I], 0),
	}
	cols := 0
	if len(matrix) > 0 {
		cols = len(matrix[0])
	}
	for i, row := range matrix {
		if len(row) != cols {
			return nil, &ShapeError{Row: i, Col: len(row), Rows: len(matrix), Cols: cols}
		}
		var (
			user  U
			found bool
		)
		for j, value := range row {
			if value == 0 {
				continue
			}
			if !found {
				if user, found = userName(int32(i)); !found {
					return nil, &LookupError{Axis: "user", Index: i}
				}
			}
			item, ok := itemName(int32(j))
			if !ok {
				return nil, &LookupError{Axis: "item", Index: j}
			}
			table.Records = append(table.Records, Record[U, I]{UserId: user, ItemId: item, Value: value})
		}
	}
	return table, nil
}

func (b *Builder[U, I]) valueColumn(kind Kind) string {
	if kind == Ratings {
		return b.columns.Rating
	}
	return b.columns.Prediction
}
