// Copyright 2024 gorse Project Authors
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

package blob

import (
	"bytes"
	"io"
	"strings"

	"github.com/gorse-io/affinity/common/log"
	"github.com/gorse-io/affinity/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	S3Prefix     = "s3://"
	GCSPrefix    = "gcs://"
	AzurePrefix  = "azblob://"
	RedisPrefix  = "redis://"
	SQLitePrefix = "sqlite://"
)

// Store is a flat namespace of named blobs.
type Store interface {
	// Open a blob for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a blob for writing. The done channel is closed once the blob has been persisted.
	Create(name string) (io.WriteCloser, chan struct{}, error)
}

// Open a blob store according to the storage config.
func Open(cfg config.StorageConfig) (Store, error) {
	switch location := cfg.BlobStore; {
	case strings.HasPrefix(location, S3Prefix):
		s3Config := cfg.S3
		s3Config.Bucket, s3Config.Prefix = splitLocation(location[len(S3Prefix):])
		return NewS3(s3Config)
	case strings.HasPrefix(location, GCSPrefix):
		gcsConfig := cfg.GCS
		gcsConfig.Bucket, gcsConfig.Prefix = splitLocation(location[len(GCSPrefix):])
		return NewGCS(gcsConfig)
	case strings.HasPrefix(location, AzurePrefix):
		container, prefix := splitLocation(location[len(AzurePrefix):])
		return NewAzureBlob(cfg.Azure, container, prefix)
	case strings.HasPrefix(location, RedisPrefix):
		return NewRedis(location)
	case strings.HasPrefix(location, SQLitePrefix):
		return NewSQLite(location[len(SQLitePrefix):])
	case location == "":
		return nil, errors.NotValidf("empty blob store")
	default:
		return NewPOSIX(location), nil
	}
}

func splitLocation(location string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(location, "/")
	return
}

// Put writes data into a blob and waits until it is persisted.
func Put(store Store, name string, data []byte) error {
	w, done, err := store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		<-done
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		<-done
		return errors.Trace(err)
	}
	<-done
	return nil
}

// Get reads the whole content of a blob.
func Get(store Store, name string) ([]byte, error) {
	r, err := store.Open(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func(r io.ReadCloser) {
		if err := r.Close(); err != nil {
			log.Logger().Error("failed to close blob", zap.String("name", name), zap.Error(err))
		}
	}(r)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// uploadWriter streams written bytes to an upload function running in the background. Close waits for the
// upload and returns its error.
type uploadWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newUploadWriter(name string, upload func(r io.Reader) error) *uploadWriter {
	pr, pw := io.Pipe()
	w := &uploadWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		if w.err != nil {
			log.Logger().Error("failed to upload blob", zap.String("name", name), zap.Error(w.err))
		}
		_ = pr.CloseWithError(w.err)
	}()
	return w
}

func (w *uploadWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return err
	}
	<-w.done
	return w.err
}

// readAll adapts key-value backends that store whole values.
func readAll(upload func(data []byte) error) func(r io.Reader) error {
	return func(r io.Reader) error {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return err
		}
		return upload(buf.Bytes())
	}
}
