// Copyright 2020 gorse Project Authors
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
	"maps"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// NotId represents an identifier that doesn't exist in an index.
const NotId = int32(-1)

// Index manages the bijection between sparse identifiers and dense coordinates. A sparse identifier is a user ID
// or item ID of any comparable type. The dense coordinate is the row or column of the affinity matrix.
type Index[T comparable] struct {
	Numbers map[T]int32 // sparse ID -> dense coordinate
	Names   []T         // dense coordinate -> sparse ID
}

// NewIndex creates an empty Index.
func NewIndex[T comparable]() *Index[T] {
	return &Index[T]{
		Numbers: make(map[T]int32),
		Names:   make([]T, 0),
	}
}

// Len returns the number of indexed identifiers.
func (idx *Index[T]) Len() int32 {
	if idx == nil {
		return 0
	}
	return int32(len(idx.Names))
}

// Add appends an identifier if it is absent and returns its coordinate.
func (idx *Index[T]) Add(name T) int32 {
	if number, exist := idx.Numbers[name]; exist {
		return number
	}
	number := int32(len(idx.Names))
	idx.Numbers[name] = number
	idx.Names = append(idx.Names, name)
	return number
}

// ToNumber converts a sparse identifier to a dense coordinate. NotId is returned for unknown identifiers.
func (idx *Index[T]) ToNumber(name T) int32 {
	if idx == nil {
		return NotId
	}
	if number, exist := idx.Numbers[name]; exist {
		return number
	}
	return NotId
}

// ToName converts a dense coordinate back to its sparse identifier.
func (idx *Index[T]) ToName(number int32) (name T, ok bool) {
	if idx == nil || number < 0 || int(number) >= len(idx.Names) {
		return name, false
	}
	return idx.Names[number], true
}

// GetNames returns all identifiers ordered by coordinate.
func (idx *Index[T]) GetNames() []T {
	return idx.Names
}

// Dict returns a copy of the forward map.
func (idx *Index[T]) Dict() map[T]int32 {
	return maps.Clone(idx.Numbers)
}

// BackDict returns the inverse map.
func (idx *Index[T]) BackDict() map[int32]T {
	return lo.Invert(idx.Numbers)
}

// newIndexFromDicts rebuilds an index from a forward map and an inverse map. Both maps must be mutually inverse
// and cover exactly the coordinates [0, n).
func newIndexFromDicts[T comparable](dict map[T]int32, backDict map[int32]T) (*Index[T], error) {
	if len(dict) != len(backDict) {
		return nil, errors.NotValidf("index with %d forward entries and %d inverse entries", len(dict), len(backDict))
	}
	idx := &Index[T]{
		Numbers: make(map[T]int32, len(dict)),
		Names:   make([]T, len(backDict)),
	}
	for number := int32(0); number < int32(len(backDict)); number++ {
		name, exist := backDict[number]
		if !exist {
			return nil, errors.NotValidf("inverse map without coordinate %d", number)
		}
		if forward, exist := dict[name]; !exist || forward != number {
			return nil, errors.NotValidf("forward map inconsistent at coordinate %d", number)
		}
		idx.Numbers[name] = number
		idx.Names[number] = name
	}
	return idx, nil
}
