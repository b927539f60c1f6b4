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
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gorse-io/affinity/common/encoding"
	"github.com/juju/errors"
)

// Record is a row of a long-format table.
type Record[U, I comparable] struct {
	UserId U
	ItemId I
	Value  float32
}

// Table is a long-format table of user, item and value columns.
type Table[U, I comparable] struct {
	Columns [3]string
	Records []Record[U, I]
}

func (t *Table[U, I]) Len() int {
	return len(t.Records)
}

// WriteCSV writes the table with a header row.
func (t *Table[U, I]) WriteCSV(w io.Writer, separator rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = separator
	if err := writer.Write(t.Columns[:]); err != nil {
		return errors.Trace(err)
	}
	for _, record := range t.Records {
		if err := writer.Write([]string{
			fmt.Sprint(record.UserId),
			fmt.Sprint(record.ItemId),
			encoding.FormatFloat32(record.Value),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}
