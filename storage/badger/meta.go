// Copyright 2025 Halcyon Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
)

// MetaRepository implements storage.MetaRepository for BadgerDB.
type MetaRepository struct {
	backend *Backend
}

var _ storage.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(backend *Backend) *MetaRepository {
	return &MetaRepository{
		backend: backend,
	}
}

// SaveRunRecord persists the outcome of a completed run, keyed by kind.
func (r *MetaRepository) SaveRunRecord(ctx context.Context, rec *core.RunRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if rec.FinishedAt.IsZero() {
			rec.FinishedAt = time.Now().UTC()
		}
		key := makeRunRecordKey(rec.Kind)
		value := storage.MarshalRunRecord(rec)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LastRunRecord retrieves the most recent run record for a kind.
func (r *MetaRepository) LastRunRecord(ctx context.Context, kind string) (*core.RunRecord, error) {
	var rec *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunRecordKey(kind)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			rec, unmarshalErr = storage.UnmarshalRunRecord(val)
			return unmarshalErr
		})
	}, false)

	return rec, err
}
