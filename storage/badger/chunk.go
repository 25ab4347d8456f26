package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceDocumentChunks deletes any chunks previously stored for the document
// and inserts the given chunks. The collection's vector dimensionality is
// recorded on first insert; inserting a different dimensionality later fails
// with storage.ErrDimensionMismatch.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if len(chunks) > 0 {
			if err := checkVectorDimension(tx, len(chunks[0].Vector)); err != nil {
				return err
			}
		}

		if err := deleteByPrefix(tx, makePartialChunkKey(documentId)); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, chunk := range chunks {
			chunk.InsertedAt = now

			key := makeChunkKey(documentId, chunk.Index)
			value := storage.MarshalChunk(chunk)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocumentChunks retrieves all chunks owned by a document, ordered by index.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Key order is index order for a fixed document prefix
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteDocumentChunks removes all chunks owned by a document.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makePartialChunkKey(documentId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteAllChunks removes every chunk and the recorded vector dimensionality.
func (r *ChunkRepository) DeleteAllChunks(ctx context.Context) error {
	if err := r.backend.DropPrefix([]byte(chunkPrefix + ":")); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		err := tx.Delete([]byte(metaVectorDimKey))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return tx.Commit()
	}, true)
}

// VectorDimension returns the dimensionality recorded at first insert, or 0
// if none is recorded yet.
func (r *ChunkRepository) VectorDimension(ctx context.Context) (int, error) {
	var dim int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		stored, err := readVectorDimension(tx)
		if err != nil {
			return err
		}
		dim = stored
		return nil
	}, false)
	return dim, err
}

// FindSimilarChunks delegates to the backend.
func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error) {
	return r.backend.FindSimilarChunks(ctx, vector, minSimilarity, limit)
}

// Helper methods

// readVectorDimension reads the recorded dimensionality, 0 when unset.
func readVectorDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(metaVectorDimKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var dim int
	err = item.Value(func(val []byte) error {
		id, err := storage.UnmarshalID(val)
		if err != nil {
			return err
		}
		dim = int(id)
		return nil
	})
	return dim, err
}

// checkVectorDimension records dim on first use and rejects mismatches after.
func checkVectorDimension(tx *badger.Txn, dim int) error {
	stored, err := readVectorDimension(tx)
	if err != nil {
		return err
	}
	if stored == 0 {
		return tx.Set([]byte(metaVectorDimKey), storage.MarshalID(core.ID(dim)))
	}
	if stored != dim {
		return fmt.Errorf("%w: collection has %d, got %d", storage.ErrDimensionMismatch, stored, dim)
	}
	return nil
}
