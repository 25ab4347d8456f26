package storage

import (
	"context"

	"github.com/halcyondata/enrich/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates new IDs from sequence.
	// Sets InsertedAt and UpdatedAt timestamps if not already set.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments writes back existing documents, updating the pass-level
	// index when a document's level changed. Unlike content ingestion, an
	// enrichment write must not advance UpdatedAt: the caller owns timestamps,
	// and bumping UpdatedAt here would make every enrichment look like a
	// content change. Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// TouchDocuments re-ingests content for existing documents: stores the
	// given documents and advances their UpdatedAt, invalidating enrichment.
	TouchDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetAllDocuments retrieves every document in the store.
	GetAllDocuments(ctx context.Context) ([]*core.Document, error)

	// GetDocumentsByPassLevel retrieves the IDs of documents currently at the
	// given pass level, via the pass-level secondary index.
	GetDocumentsByPassLevel(ctx context.Context, level core.PassLevel) ([]core.ID, error)
}

// AtomRepository provides operations for managing extracted atoms.
// Atoms are always manipulated per owning document: an atom-extraction run
// replaces a document's whole atom set.
type AtomRepository interface {
	Repository

	// ReplaceDocumentAtoms deletes any atoms previously stored for the
	// document and inserts the given atoms. Atom IDs are content-derived, so
	// replacement is idempotent. Atoms for other documents are untouched.
	ReplaceDocumentAtoms(ctx context.Context, documentId core.ID, atoms []*core.Atom) error

	// GetDocumentAtoms retrieves all atoms owned by a document.
	GetDocumentAtoms(ctx context.Context, documentId core.ID) ([]*core.Atom, error)

	// DeleteDocumentAtoms removes all atoms owned by a document.
	DeleteDocumentAtoms(ctx context.Context, documentId core.ID) error
}

// ChunkRepository provides operations for managing embedding chunks.
type ChunkRepository interface {
	Repository

	// ReplaceDocumentChunks deletes any chunks previously stored for the
	// document and inserts the given chunks. The first insert into an empty
	// collection records the vector dimensionality; later inserts with a
	// different dimensionality fail with ErrDimensionMismatch.
	ReplaceDocumentChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) error

	// GetDocumentChunks retrieves all chunks owned by a document, ordered by index.
	GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// DeleteDocumentChunks removes all chunks owned by a document.
	DeleteDocumentChunks(ctx context.Context, documentId core.ID) error

	// DeleteAllChunks removes every chunk and clears the recorded vector
	// dimensionality. Used by a global embedding reset.
	DeleteAllChunks(ctx context.Context) error

	// VectorDimension returns the dimensionality recorded at first insert,
	// or 0 if the collection is empty and no dimensionality is recorded.
	VectorDimension(ctx context.Context) (int, error)

	// FindSimilarChunks finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilarChunks(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error)
}

// MetaRepository persists run-level metadata.
type MetaRepository interface {
	// SaveRunRecord stores the outcome of a completed run, keyed by kind.
	SaveRunRecord(ctx context.Context, rec *core.RunRecord) error

	// LastRunRecord retrieves the most recent run record for a kind.
	// Returns ErrNotFound if no run of that kind has been recorded.
	LastRunRecord(ctx context.Context, kind string) (*core.RunRecord, error)
}
