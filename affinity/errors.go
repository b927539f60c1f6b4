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

import "fmt"

// ShapeError reports a coordinate outside the declared matrix shape.
type ShapeError struct {
	Row  int
	Col  int
	Rows int
	Cols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("coordinate (%d, %d) out of shape (%d, %d)", e.Row, e.Col, e.Rows, e.Cols)
}

// LookupError reports a matrix coordinate missing from an inverse map. It means the matrix and the maps do not
// belong together.
type LookupError struct {
	Axis  string
	Index int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %d not found in inverse map", e.Axis, e.Index)
}
