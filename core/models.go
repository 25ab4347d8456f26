package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// PassLevel marks the highest enrichment pass a document has completed.
// Levels form a total order; a document only moves upward except when its
// content changes or a reset is requested.
type PassLevel int

const (
	// LevelUnindexed means no enrichment pass has run yet.
	LevelUnindexed PassLevel = iota
	// LevelSummarized means the summary pass has completed.
	LevelSummarized
	// LevelAtomized means the atom extraction pass has completed.
	LevelAtomized
	// LevelRelated means the relationship pass has completed. Terminal level.
	LevelRelated
)

// String returns a human-readable name for the pass level.
func (l PassLevel) String() string {
	switch l {
	case LevelUnindexed:
		return "unindexed"
	case LevelSummarized:
		return "summarized"
	case LevelAtomized:
		return "atomized"
	case LevelRelated:
		return "related"
	default:
		return fmt.Sprintf("PassLevel(%d)", int(l))
	}
}

// Next returns the level that follows l. LevelRelated is terminal and
// returns itself.
func (l PassLevel) Next() PassLevel {
	if l >= LevelRelated {
		return LevelRelated
	}
	return l + 1
}

// Valid reports whether l is one of the defined pass levels.
func (l PassLevel) Valid() bool {
	return l >= LevelUnindexed && l <= LevelRelated
}

// RelatedIdsCap is the maximum number of related document references a
// document may carry. Insertion order is preserved; the oldest-discovered
// entries are retained on overflow.
const RelatedIdsCap = 50

// Document is the unit of enrichment. Documents are owned by the document
// store; the enrichment core reads them, mutates enrichment fields, and
// writes them back. It never deletes documents.
type Document struct {
	Id         ID
	Title      string
	Content    string
	InsertedAt time.Time // When the document was inserted into the store
	UpdatedAt  time.Time // When the document content was last updated
	PassLevel  PassLevel // Highest enrichment pass completed
	Summary    string    // Populated by the summary pass
	EnrichedAt time.Time // When an enrichment pass last wrote to this document
	RelatedIds []ID      // Related documents, insertion-ordered, capped at RelatedIdsCap
	EmbeddedAt time.Time // When the document's chunks were last embedded
	ChunkCount int       // Number of chunks produced by the last embedding run
}

// NeedsReset reports whether the document's content has changed since it was
// last enriched, which invalidates every completed pass.
func (d *Document) NeedsReset() bool {
	return d.PassLevel > LevelUnindexed && d.UpdatedAt.After(d.EnrichedAt)
}

// NeedsEmbedding reports whether the document's chunk set is out of sync
// with its content. Embedding state is independent of PassLevel.
func (d *Document) NeedsEmbedding() bool {
	return d.EmbeddedAt.IsZero() || d.UpdatedAt.After(d.EmbeddedAt)
}

// Atom is a single extracted factual sentence attributed to a document.
// Atoms carry denormalized document metadata so they can be read without a
// document lookup.
type Atom struct {
	Id            ID
	DocumentId    ID
	DocumentTitle string
	Content       string
	Confidence    float32 // Model-reported confidence in [0,1]; 0 when absent
	InsertedAt    time.Time
}

// AtomID generates the deterministic identity for an atom: a content hash of
// the owning document's ID and the atom text. Re-inserting the same fact for
// the same document is therefore idempotent.
func AtomID(documentId ID, content string) ID {
	return IDFromContent(fmt.Sprintf("%d\n%s", documentId, content))
}

// Chunk is an overlapping text segment of a document prepared for embedding.
// Its identity is the (DocumentId, Index) pair, so chunk replacement is
// idempotent. Chunks are fully replaced whenever their parent is re-embedded.
type Chunk struct {
	DocumentId    ID
	Index         int
	DocumentTitle string
	Text          string    // Raw segment text
	EmbedText     string    // Title-prefixed text that was actually embedded
	Vector        []float32 // Embedding vector (populated by the orchestrator)
	InsertedAt    time.Time
}

// ScoredChunk is a chunk match from vector similarity search.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// Run kinds recorded in RunRecord.
const (
	RunKindPasses    = "passes"
	RunKindEmbedding = "embedding"
)

// RunRecord captures the outcome of a completed pipeline run. The last
// record per kind is persisted so operators can inspect run history without
// replaying logs.
type RunRecord struct {
	Kind       string
	Processed  int
	Skipped    int
	Errored    int
	FinishedAt time.Time
}
