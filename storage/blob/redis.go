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

package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Redis keeps each blob as a string value.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{client: redis.NewClient(opt)}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Open(name string) (io.ReadCloser, error) {
	data, err := r.client.Get(context.Background(), name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.NotFoundf("blob %s", name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *Redis) Create(name string) (io.WriteCloser, chan struct{}, error) {
	w := newUploadWriter(name, readAll(func(data []byte) error {
		return r.client.Set(context.Background(), name, data, 0).Err()
	}))
	return w, w.done, nil
}
