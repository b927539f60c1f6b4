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
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/gorse-io/affinity/config"
	"github.com/gorse-io/affinity/dataset"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = config.ColumnsConfig{
	User:       "col_user",
	Item:       "col_item",
	Rating:     "col_rating",
	Prediction: "col_prediction",
	Separator:  ",",
}

func exampleObservations() []dataset.Observation[string, string] {
	return []dataset.Observation[string, string]{
		{UserId: "u1", ItemId: "i1", Rating: 5},
		{UserId: "u1", ItemId: "i2", Rating: 3},
		{UserId: "u2", ItemId: "i1", Rating: 4},
	}
}

func TestBuilder_Assemble(t *testing.T) {
	mapping, err := dataset.NewIndexMapper[string, string]().Build(exampleObservations(), nil)
	require.NoError(t, err)
	builder := NewBuilder[string, string](columns)
	m, err := builder.Assemble(mapping)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 3}, {4, 0}}, m.Matrix)
	assert.Equal(t, map[string]int32{"u1": 0, "u2": 1}, m.UserDict)
	assert.Equal(t, map[string]int32{"i1": 0, "i2": 1}, m.ItemDict)
	assert.Equal(t, Stats{Rows: 2, Cols: 2, Observations: 3, Sparsity: 25}, m.Stats)

	table, err := builder.Disassemble(m.Matrix, mapping.Users, mapping.Items, Ratings)
	require.NoError(t, err)
	assert.Equal(t, [3]string{"col_user", "col_item", "col_rating"}, table.Columns)
	assert.Equal(t, []Record[string, string]{
		{UserId: "u1", ItemId: "i1", Value: 5},
		{UserId: "u1", ItemId: "i2", Value: 3},
		{UserId: "u2", ItemId: "i1", Value: 4},
	}, table.Records)
}

func TestBuilder_Vocabulary(t *testing.T) {
	mapping, err := dataset.NewIndexMapper[string, string]().Build(exampleObservations(), []string{"i1", "i2", "i3"})
	require.NoError(t, err)
	builder := NewBuilder[string, string](columns)
	m, err := builder.Assemble(mapping)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 3, 0}, {4, 0, 0}}, m.Matrix)
	assert.Equal(t, 3, m.Stats.Cols)
	name, ok := mapping.Items.ToName(2)
	assert.True(t, ok)
	assert.Equal(t, "i3", name)

	table, err := builder.Disassemble(m.Matrix, mapping.Users, mapping.Items, Ratings)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)
	for _, record := range table.Records {
		assert.NotEqual(t, "i3", record.ItemId)
	}
}

func TestBuilder_Shape(t *testing.T) {
	builder := NewBuilder[string, string](columns)
	// no observations
	m, err := builder.AssembleObservations(nil, 3, 4)
	require.NoError(t, err)
	assert.Len(t, m.Matrix, 3)
	for _, row := range m.Matrix {
		assert.Equal(t, []float32{0, 0, 0, 0}, row)
	}
	assert.Equal(t, float64(100), m.Stats.Sparsity)

	// empty shape
	m, err = builder.AssembleObservations(nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, m.Matrix)
	assert.Zero(t, m.Stats.Sparsity)

	// vocabulary only
	mapping, err := dataset.NewIndexMapper[string, string]().Build(nil, []string{"i1", "i2"})
	require.NoError(t, err)
	m, err = builder.Assemble(mapping)
	require.NoError(t, err)
	assert.Empty(t, m.Matrix)
	assert.Equal(t, 2, m.Stats.Cols)
}

func TestBuilder_ShapeError(t *testing.T) {
	builder := NewBuilder[string, string](columns)
	observations := []dataset.MappedObservation[string, string]{
		{Observation: dataset.Observation[string, string]{UserId: "u1", ItemId: "i1", Rating: 1}, Row: 0, Col: 0},
		{Observation: dataset.Observation[string, string]{UserId: "u1", ItemId: "i9", Rating: 1}, Row: 0, Col: 2},
	}
	_, err := builder.AssembleObservations(observations, 1, 2)
	var shapeError *ShapeError
	require.True(t, errors.As(err, &shapeError))
	assert.Equal(t, ShapeError{Row: 0, Col: 2, Rows: 1, Cols: 2}, *shapeError)

	observations[1].Row, observations[1].Col = -1, 0
	_, err = builder.AssembleObservations(observations, 1, 2)
	assert.True(t, errors.As(err, &shapeError))
}

func TestBuilder_Duplicates(t *testing.T) {
	observations := append(exampleObservations(), dataset.Observation[string, string]{UserId: "u1", ItemId: "i1", Rating: 1})
	mapping, err := dataset.NewIndexMapper[string, string]().Build(observations, nil)
	require.NoError(t, err)
	m, err := NewBuilder[string, string](columns).Assemble(mapping)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{6, 3}, {4, 0}}, m.Matrix)
	assert.Equal(t, 1, m.Stats.Duplicates)
}

func TestBuilder_ZeroRating(t *testing.T) {
	observations := append(exampleObservations(), dataset.Observation[string, string]{UserId: "u2", ItemId: "i2", Rating: 0})
	mapping, err := dataset.NewIndexMapper[string, string]().Build(observations, nil)
	require.NoError(t, err)
	builder := NewBuilder[string, string](columns)
	m, err := builder.Assemble(mapping)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 3}, {4, 0}}, m.Matrix)
	assert.Equal(t, 1, m.Stats.ZeroRatings)

	// the zero rating is lost on the way back
	table, err := builder.Disassemble(m.Matrix, mapping.Users, mapping.Items, Ratings)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)
}

func TestBuilder_Disassemble(t *testing.T) {
	users := dataset.NewIndex[int]()
	for _, user := range []int{7, 3, 5} {
		users.Add(user)
	}
	items := dataset.NewIndex[string]()
	for _, item := range []string{"x", "y"} {
		items.Add(item)
	}
	builder := NewBuilder[int, string](columns)
	table, err := builder.Disassemble([][]float32{{0, 0.5}, {0, 0}, {1.5, 2.5}}, users, items, Predictions)
	require.NoError(t, err)
	assert.Equal(t, [3]string{"col_user", "col_item", "col_prediction"}, table.Columns)
	// the second user vanishes
	assert.Equal(t, []Record[int, string]{
		{UserId: 7, ItemId: "y", Value: 0.5},
		{UserId: 5, ItemId: "x", Value: 1.5},
		{UserId: 5, ItemId: "y", Value: 2.5},
	}, table.Records)

	// unknown kinds label predictions
	table, err = builder.Disassemble(nil, users, items, "scores")
	require.NoError(t, err)
	assert.Equal(t, "col_prediction", table.Columns[2])
	assert.Zero(t, table.Len())
}

func TestBuilder_LookupError(t *testing.T) {
	users := dataset.NewIndex[string]()
	users.Add("u1")
	items := dataset.NewIndex[string]()
	items.Add("i1")
	builder := NewBuilder[string, string](columns)

	// missing row
	_, err := builder.Disassemble([][]float32{{1}, {1}}, users, items, Ratings)
	var lookupError *LookupError
	require.True(t, errors.As(err, &lookupError))
	assert.Equal(t, LookupError{Axis: "user", Index: 1}, *lookupError)

	// missing column
	_, err = builder.Disassemble([][]float32{{0, 1}}, users, items, Ratings)
	require.True(t, errors.As(err, &lookupError))
	assert.Equal(t, LookupError{Axis: "item", Index: 1}, *lookupError)

	// all-zero rows and columns are never looked up
	_, err = builder.Disassemble([][]float32{{1, 0}, {0, 0}}, users, items, Ratings)
	assert.NoError(t, err)

	// ragged matrix
	_, err = builder.Disassemble([][]float32{{1}, {1, 0}}, users, items, Ratings)
	var shapeError *ShapeError
	assert.True(t, errors.As(err, &shapeError))
}

func TestBuilder_DisassembleDicts(t *testing.T) {
	mapping, err := dataset.NewIndexMapper[string, string]().Build([]dataset.Observation[string, string]{
		{UserId: "Bob", ItemId: "Item1", Rating: 4},
		{UserId: "Alice", ItemId: "Item1", Rating: 5},
		{UserId: "Alice", ItemId: "Item2", Rating: 3},
	}, nil)
	require.NoError(t, err)
	builder := NewBuilder[string, string](columns)
	m, err := builder.Assemble(mapping)
	require.NoError(t, err)

	expected, err := builder.Disassemble(m.Matrix, mapping.Users, mapping.Items, Ratings)
	require.NoError(t, err)
	table, err := builder.DisassembleDicts(m.Matrix, mapping.UserBackDict(), mapping.ItemBackDict(), Ratings)
	require.NoError(t, err)
	assert.Equal(t, expected, table)

	// partial inverse maps
	table, err = builder.DisassembleDicts([][]float32{{0, 0}, {2, 0}}, map[int32]string{1: "Bob"}, map[int32]string{0: "Item1"}, Ratings)
	require.NoError(t, err)
	assert.Equal(t, []Record[string, string]{{UserId: "Bob", ItemId: "Item1", Value: 2}}, table.Records)
	_, err = builder.DisassembleDicts([][]float32{{1}}, map[int32]string{}, map[int32]string{0: "Item1"}, Ratings)
	var lookupError *LookupError
	require.True(t, errors.As(err, &lookupError))
	assert.Equal(t, LookupError{Axis: "user", Index: 0}, *lookupError)
}

func TestBuilder_Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	type key struct {
		user string
		item int
	}
	ratings := make(map[key]float32)
	for len(ratings) < 500 {
		ratings[key{fmt.Sprintf("user_%03d", rng.Intn(60)), rng.Intn(300)}] = float32(rng.Intn(5) + 1)
	}
	observations := make([]dataset.Observation[string, int], 0, len(ratings))
	for k, rating := range ratings {
		observations = append(observations, dataset.Observation[string, int]{UserId: k.user, ItemId: k.item, Rating: rating})
	}
	rng.Shuffle(len(observations), func(i, j int) {
		observations[i], observations[j] = observations[j], observations[i]
	})

	mapping, err := dataset.NewIndexMapper[string, int]().Build(observations, nil)
	require.NoError(t, err)
	builder := NewBuilder[string, int](columns)
	m, err := builder.Assemble(mapping)
	require.NoError(t, err)
	assert.Len(t, m.Matrix, mapping.CountUsers())
	assert.Len(t, m.Matrix[0], mapping.CountItems())
	assert.Zero(t, m.Stats.Duplicates)

	table, err := builder.Disassemble(m.Matrix, mapping.Users, mapping.Items, Ratings)
	require.NoError(t, err)
	assert.ElementsMatch(t, lo.Map(observations, func(o dataset.Observation[string, int], _ int) Record[string, int] {
		return Record[string, int]{UserId: o.UserId, ItemId: o.ItemId, Value: o.Rating}
	}), table.Records)
	// row-major, ascending columns
	for i := 1; i < len(table.Records); i++ {
		prev, cur := table.Records[i-1], table.Records[i]
		prevRow, curRow := mapping.Users.ToNumber(prev.UserId), mapping.Users.ToNumber(cur.UserId)
		assert.True(t, prevRow < curRow || (prevRow == curRow && mapping.Items.ToNumber(prev.ItemId) < mapping.Items.ToNumber(cur.ItemId)))
	}
}
