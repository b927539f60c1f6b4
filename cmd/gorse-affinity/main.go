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

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/gorse-io/affinity/affinity"
	"github.com/gorse-io/affinity/cmd/version"
	"github.com/gorse-io/affinity/common/log"
	"github.com/gorse-io/affinity/config"
	"github.com/gorse-io/affinity/dataset"
	"github.com/gorse-io/affinity/storage/blob"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMatrixName = "affinity_matrix"

var rootCommand = &cobra.Command{
	Use:   "gorse-affinity",
	Short: "Build user/item affinity matrices from long-format ratings and map them back.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print gorse-affinity version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

var assembleCommand = &cobra.Command{
	Use:   "assemble",
	Short: "Index a ratings table and save its affinity matrix",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		var opts assembleOptions
		opts.input, _ = cmd.Flags().GetString("input")
		opts.vocabulary, _ = cmd.Flags().GetString("vocabulary")
		opts.matrix, _ = cmd.Flags().GetString("matrix")
		if err := runAssemble(conf, opts, os.Stdout); err != nil {
			log.Logger().Fatal("failed to assemble affinity matrix", zap.Error(err))
		}
	},
}

var disassembleCommand = &cobra.Command{
	Use:   "disassemble",
	Short: "Map a saved matrix back to a long-format table",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		var opts disassembleOptions
		opts.matrix, _ = cmd.Flags().GetString("matrix")
		opts.kind, _ = cmd.Flags().GetString("kind")
		output, _ := cmd.Flags().GetString("output")
		err := writeOutput(output, func(w io.Writer) error {
			return runDisassemble(conf, opts, w)
		})
		if err != nil {
			log.Logger().Fatal("failed to disassemble affinity matrix", zap.Error(err))
		}
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("blob-store", "", "blob store overriding storage.blob_store")
	rootCommand.PersistentFlags().String("save-path", "", "path in the blob store overriding storage.save_path")

	assembleCommand.Flags().StringP("input", "i", "", "ratings table in CSV format")
	assembleCommand.Flags().String("vocabulary", "", "file of item identifiers, one per line")
	assembleCommand.Flags().String("matrix", defaultMatrixName, "name of the saved matrix")
	_ = assembleCommand.MarkFlagRequired("input")

	disassembleCommand.Flags().String("matrix", defaultMatrixName, "name of the saved matrix")
	disassembleCommand.Flags().String("kind", string(affinity.Ratings), "kind of values: ratings or predictions")
	disassembleCommand.Flags().StringP("output", "o", "", "output CSV file (default stdout)")

	rootCommand.AddCommand(assembleCommand, disassembleCommand, versionCommand)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	if cmd.Flags().Changed("blob-store") {
		conf.Storage.BlobStore, _ = cmd.Flags().GetString("blob-store")
	}
	if cmd.Flags().Changed("save-path") {
		conf.Storage.SavePath, _ = cmd.Flags().GetString("save-path")
	}
	return conf
}

type assembleOptions struct {
	input      string
	vocabulary string
	matrix     string
}

func runAssemble(conf *config.Config, opts assembleOptions, stdout io.Writer) error {
	store, err := blob.Open(conf.Storage)
	if err != nil {
		return errors.Trace(err)
	}
	observations, err := loadFile(opts.input, func(r io.Reader) ([]dataset.Observation[string, string], error) {
		return dataset.LoadCSV(r, conf.Columns)
	})
	if err != nil {
		return errors.Annotatef(err, "failed to load %s", opts.input)
	}
	var vocabulary []string
	if opts.vocabulary != "" {
		if vocabulary, err = loadFile(opts.vocabulary, dataset.LoadVocabulary); err != nil {
			return errors.Annotatef(err, "failed to load %s", opts.vocabulary)
		}
	}

	// Maps are persisted only once the matrix is accepted, so a refused job leaves the store untouched.
	mapping, err := dataset.NewIndexMapper[string, string]().Build(observations, vocabulary)
	if err != nil {
		return errors.Trace(err)
	}
	if cells := mapping.CountUsers() * mapping.CountItems(); conf.Matrix.MaxCells > 0 && cells > conf.Matrix.MaxCells {
		return errors.Errorf("affinity matrix of %d x %d exceeds %d cells",
			mapping.CountUsers(), mapping.CountItems(), conf.Matrix.MaxCells)
	}
	m, err := affinity.NewBuilder[string, string](conf.Columns).Assemble(mapping)
	if err != nil {
		return errors.Trace(err)
	}
	buf := bytes.NewBuffer(nil)
	if err = affinity.MarshalMatrix(buf, m.Matrix); err != nil {
		return errors.Trace(err)
	}
	if err = mapping.Persist(store, conf.Storage.SavePath); err != nil {
		return errors.Trace(err)
	}
	if err = blob.Put(store, path.Join(conf.Storage.SavePath, opts.matrix), buf.Bytes()); err != nil {
		return errors.Trace(err)
	}

	table := tablewriter.NewWriter(stdout)
	table.Header("Metric", "Value")
	for _, row := range [][]string{
		{"users", strconv.Itoa(m.Stats.Rows)},
		{"items", strconv.Itoa(m.Stats.Cols)},
		{"observations", strconv.Itoa(m.Stats.Observations)},
		{"out of vocabulary", strconv.Itoa(mapping.Dropped)},
		{"duplicates", strconv.Itoa(m.Stats.Duplicates)},
		{"zero ratings", strconv.Itoa(m.Stats.ZeroRatings)},
		{"sparsity (%)", strconv.FormatFloat(m.Stats.Sparsity, 'f', 2, 64)},
	} {
		if err = table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

type disassembleOptions struct {
	matrix string
	kind   string
}

func runDisassemble(conf *config.Config, opts disassembleOptions, w io.Writer) error {
	store, err := blob.Open(conf.Storage)
	if err != nil {
		return errors.Trace(err)
	}
	mapping, err := dataset.Restore[string, string](store, conf.Storage.SavePath)
	if err != nil {
		return errors.Trace(err)
	}
	data, err := blob.Get(store, path.Join(conf.Storage.SavePath, opts.matrix))
	if err != nil {
		return errors.Trace(err)
	}
	m, err := affinity.UnmarshalMatrix(bytes.NewReader(data), conf.Matrix.MaxCells)
	if err != nil {
		return errors.Trace(err)
	}
	table, err := affinity.NewBuilder[string, string](conf.Columns).
		Disassemble(m, mapping.Users, mapping.Items, affinity.Kind(opts.kind))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("disassemble affinity matrix", zap.Int("n_records", table.Len()))
	return table.WriteCSV(w, []rune(conf.Columns.Separator)[0])
}

// writeOutput runs write against stdout if output is empty. Otherwise it writes a temporary file next to output
// and renames it on success, so a failed write never truncates an existing output.
func writeOutput(output string, write func(w io.Writer) error) error {
	if output == "" {
		return write(os.Stdout)
	}
	file, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*")
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(file.Name())
	if err = write(file); err != nil {
		_ = file.Close()
		return errors.Trace(err)
	}
	if err = file.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.Rename(file.Name(), output))
}

func loadFile[T any](name string, load func(r io.Reader) (T, error)) (T, error) {
	if name == "-" {
		return load(os.Stdin)
	}
	file, err := os.Open(name)
	if err != nil {
		var zero T
		return zero, errors.Trace(err)
	}
	defer file.Close()
	return load(file)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
