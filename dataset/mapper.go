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

package dataset

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/affinity/common/log"
	"github.com/gorse-io/affinity/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// IndexMapper builds user and item indices from observations.
type IndexMapper[U, I comparable] struct {
	compare  func(a, b U) int
	store    blob.Store
	savePath string
}

// NewIndexMapper creates an IndexMapper for naturally ordered user identifiers.
func NewIndexMapper[U cmp.Ordered, I comparable]() *IndexMapper[U, I] {
	return NewIndexMapperFunc[U, I](cmp.Compare[U])
}

// NewIndexMapperFunc creates an IndexMapper ordering user identifiers by compare. The order only groups the
// observations of a user together; it carries no other meaning.
func NewIndexMapperFunc[U, I comparable](compare func(a, b U) int) *IndexMapper[U, I] {
	return &IndexMapper[U, I]{compare: compare}
}

// WithStore makes Build persist the indices under savePath of store.
func (m *IndexMapper[U, I]) WithStore(store blob.Store, savePath string) *IndexMapper[U, I] {
	m.store = store
	m.savePath = savePath
	return m
}

// Build indices from observations. Users are numbered by first occurrence after a stable sort by user. Items are
// numbered in the order of vocabulary if it is not nil, otherwise by first occurrence. Observations of items
// missing from the vocabulary are dropped and counted.
func (m *IndexMapper[U, I]) Build(observations []Observation[U, I], vocabulary []I) (*Mapping[U, I], error) {
	sorted := slices.Clone(observations)
	slices.SortStableFunc(sorted, func(a, b Observation[U, I]) int {
		return m.compare(a.UserId, b.UserId)
	})

	mapping := &Mapping[U, I]{
		Users: NewIndex[U](),
		Items: NewIndex[I](),
	}
	for _, observation := range sorted {
		mapping.Users.Add(observation.UserId)
	}
	if vocabulary != nil {
		seen := mapset.NewThreadUnsafeSetWithSize[I](len(vocabulary))
		for _, item := range vocabulary {
			if !seen.Add(item) {
				return nil, errors.NotValidf("vocabulary with duplicate item %v", item)
			}
			mapping.Items.Add(item)
		}
	} else {
		for _, observation := range sorted {
			mapping.Items.Add(observation.ItemId)
		}
	}

	mapping.Observations = make([]MappedObservation[U, I], 0, len(sorted))
	for _, observation := range sorted {
		col := mapping.Items.ToNumber(observation.ItemId)
		if col == NotId {
			mapping.Dropped++
			continue
		}
		mapping.Observations = append(mapping.Observations, MappedObservation[U, I]{
			Observation: observation,
			Row:         mapping.Users.ToNumber(observation.UserId),
			Col:         col,
		})
	}
	log.Logger().Info("build user/item index",
		zap.Int("n_users", mapping.CountUsers()),
		zap.Int("n_items", mapping.CountItems()),
		zap.Int("n_observations", len(mapping.Observations)))
	if mapping.Dropped > 0 {
		log.Logger().Warn("observations of items out of vocabulary are dropped",
			zap.Int("n_dropped", mapping.Dropped))
	}

	if m.store != nil {
		if err := mapping.Persist(m.store, m.savePath); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return mapping, nil
}

// Mapping holds user and item indices built from a snapshot of observations.
type Mapping[U, I comparable] struct {
	Users        *Index[U]
	Items        *Index[I]
	Observations []MappedObservation[U, I]
	// Dropped is the number of observations whose item is out of vocabulary.
	Dropped int
}

func (m *Mapping[U, I]) CountUsers() int {
	return int(m.Users.Len())
}

func (m *Mapping[U, I]) CountItems() int {
	return int(m.Items.Len())
}

// UserDict returns the user ID -> row map.
func (m *Mapping[U, I]) UserDict() map[U]int32 {
	return m.Users.Dict()
}

// ItemDict returns the item ID -> column map.
func (m *Mapping[U, I]) ItemDict() map[I]int32 {
	return m.Items.Dict()
}

// UserBackDict returns the row -> user ID map.
func (m *Mapping[U, I]) UserBackDict() map[int32]U {
	return m.Users.BackDict()
}

// ItemBackDict returns the column -> item ID map.
func (m *Mapping[U, I]) ItemBackDict() map[int32]I {
	return m.Items.BackDict()
}

// Apply maps observations into the existing coordinate space, e.g. a held-out test set sharing the identifiers
// of the training set. Input order is kept. Observations with unknown users or items are dropped and counted.
func (m *Mapping[U, I]) Apply(observations []Observation[U, I]) ([]MappedObservation[U, I], int) {
	mapped := make([]MappedObservation[U, I], 0, len(observations))
	dropped := 0
	for _, observation := range observations {
		row := m.Users.ToNumber(observation.UserId)
		col := m.Items.ToNumber(observation.ItemId)
		if row == NotId || col == NotId {
			dropped++
			continue
		}
		mapped = append(mapped, MappedObservation[U, I]{Observation: observation, Row: row, Col: col})
	}
	return mapped, dropped
}
