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
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/gorse-io/affinity/common/util"
	"github.com/gorse-io/affinity/config"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// LoadCSV reads observations from a CSV table with a header row. Columns are located by the names in cfg; other
// columns are ignored.
func LoadCSV(r io.Reader, cfg config.ColumnsConfig) ([]Observation[string, string], error) {
	reader := csv.NewReader(r)
	reader.Comma = []rune(cfg.Separator)[0]
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read header")
	}
	header = lo.Map(header, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	var positions [3]int
	for i, name := range []string{cfg.User, cfg.Item, cfg.Rating} {
		if positions[i] = lo.IndexOf(header, name); positions[i] < 0 {
			return nil, errors.NotFoundf("column %s", name)
		}
	}

	var observations []Observation[string, string]
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		rating, err := util.ParseFloat[float32](record[positions[2]])
		if err != nil {
			line, _ := reader.FieldPos(positions[2])
			return nil, errors.Annotatef(err, "invalid rating at line %d", line)
		}
		observations = append(observations, Observation[string, string]{
			UserId: record[positions[0]],
			ItemId: record[positions[1]],
			Rating: rating,
		})
	}
	return observations, nil
}

// LoadVocabulary reads one item identifier per line. Blank lines are skipped; order is kept.
func LoadVocabulary(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	vocabulary := make([]string, 0)
	for scanner.Scan() {
		if item := strings.TrimSpace(scanner.Text()); item != "" {
			vocabulary = append(vocabulary, item)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return vocabulary, nil
}
