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

// Observation is a rating of an item given by a user. A rating of exactly 0 cannot be told apart from a missing
// observation once it is assembled into an affinity matrix.
type Observation[U, I comparable] struct {
	UserId U
	ItemId I
	Rating float32
}

// MappedObservation is an observation annotated with its matrix coordinate.
type MappedObservation[U, I comparable] struct {
	Observation[U, I]
	Row int32
	Col int32
}
