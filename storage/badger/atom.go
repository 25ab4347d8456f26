package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
)

// AtomRepository implements storage.AtomRepository for BadgerDB.
type AtomRepository struct {
	backend *Backend
}

var _ storage.AtomRepository = (*AtomRepository)(nil)

// NewAtomRepository creates a new AtomRepository.
func NewAtomRepository(backend *Backend) (*AtomRepository, error) {
	return &AtomRepository{
		backend: backend,
	}, nil
}

// Close releases resources. AtomRepository has no resources to release.
func (r *AtomRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *AtomRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceDocumentAtoms deletes any atoms previously stored for the document
// and inserts the given atoms in one transaction.
func (r *AtomRepository) ReplaceDocumentAtoms(ctx context.Context, documentId core.ID, atoms []*core.Atom) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makePartialAtomKey(documentId)); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, atom := range atoms {
			if atom.Id == 0 {
				atom.Id = core.AtomID(atom.DocumentId, atom.Content)
			}
			atom.InsertedAt = now

			key := makeAtomKey(documentId, atom.Id)
			value := storage.MarshalAtom(atom)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocumentAtoms retrieves all atoms owned by a document.
func (r *AtomRepository) GetDocumentAtoms(ctx context.Context, documentId core.ID) ([]*core.Atom, error) {
	var results []*core.Atom
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialAtomKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var atom *core.Atom
			err := iter.Item().Value(func(val []byte) error {
				var err error
				atom, err = storage.UnmarshalAtom(val)
				return err
			})
			if err != nil {
				return err
			}
			if atom != nil {
				results = append(results, atom)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteDocumentAtoms removes all atoms owned by a document.
func (r *AtomRepository) DeleteDocumentAtoms(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makePartialAtomKey(documentId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteByPrefix removes every key with the given prefix within a
// transaction. Keys are collected before deletion since BadgerDB forbids
// mutating while iterating the same keys.
func deleteByPrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
