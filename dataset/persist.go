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
	"bytes"
	"path"

	"github.com/gorse-io/affinity/common/encoding"
	"github.com/gorse-io/affinity/common/log"
	"github.com/gorse-io/affinity/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	UserDict     = "user_dict"
	ItemDict     = "item_dict"
	UserBackDict = "user_back_dict"
	ItemBackDict = "item_back_dict"
)

// Persist writes the forward and inverse maps of users and items as four blobs under dir.
func (m *Mapping[U, I]) Persist(store blob.Store, dir string) error {
	for _, entry := range []struct {
		name string
		dict any
	}{
		{UserDict, m.UserDict()},
		{ItemDict, m.ItemDict()},
		{UserBackDict, m.UserBackDict()},
		{ItemBackDict, m.ItemBackDict()},
	} {
		if err := putGob(store, path.Join(dir, entry.name), entry.dict); err != nil {
			return errors.Annotatef(err, "failed to save %s", entry.name)
		}
	}
	log.Logger().Info("save user/item index", zap.String("path", dir))
	return nil
}

// Restore reads the maps written by Persist. The restored mapping carries no observations.
func Restore[U, I comparable](store blob.Store, dir string) (*Mapping[U, I], error) {
	var (
		userDict     map[U]int32
		itemDict     map[I]int32
		userBackDict map[int32]U
		itemBackDict map[int32]I
	)
	for _, entry := range []struct {
		name string
		dict any
	}{
		{UserDict, &userDict},
		{ItemDict, &itemDict},
		{UserBackDict, &userBackDict},
		{ItemBackDict, &itemBackDict},
	} {
		if err := getGob(store, path.Join(dir, entry.name), entry.dict); err != nil {
			return nil, errors.Annotatef(err, "failed to load %s", entry.name)
		}
	}
	users, err := newIndexFromDicts(userDict, userBackDict)
	if err != nil {
		return nil, errors.Annotate(err, "users")
	}
	items, err := newIndexFromDicts(itemDict, itemBackDict)
	if err != nil {
		return nil, errors.Annotate(err, "items")
	}
	log.Logger().Info("load user/item index", zap.String("path", dir),
		zap.Int32("n_users", users.Len()), zap.Int32("n_items", items.Len()))
	return &Mapping[U, I]{Users: users, Items: items}, nil
}

func putGob(store blob.Store, name string, v any) error {
	buf := bytes.NewBuffer(nil)
	if err := encoding.WriteGob(buf, v); err != nil {
		return errors.Trace(err)
	}
	return blob.Put(store, name, buf.Bytes())
}

func getGob(store blob.Store, name string, v any) error {
	data, err := blob.Get(store, name)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.ReadGob(bytes.NewReader(data), v))
}
