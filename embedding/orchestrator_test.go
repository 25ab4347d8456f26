package embedding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/halcyondata/enrich/ai/mock"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
	"github.com/halcyondata/enrich/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrchestrator(t *testing.T, dimensions int, config *Config) (*Orchestrator, *badger.MemoryRepositories) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = dimensions

	orch, err := NewOrchestrator(repos.Documents, repos.Chunks, repos.Meta, embedder, config, nil)
	require.NoError(t, err)
	return orch, repos
}

func seedDocuments(t *testing.T, repos *badger.MemoryRepositories, n int) []*core.Document {
	ctx := context.Background()
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			Title:   fmt.Sprintf("Document %d", i+1),
			Content: fmt.Sprintf("Short content for document %d.", i+1),
		}
	}
	added, err := repos.Documents.AddDocuments(ctx, docs...)
	require.NoError(t, err)
	return added
}

func TestNewOrchestrator_Validation(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)
	embedder := mock.NewMockEmbedder()

	_, err = NewOrchestrator(nil, repos.Chunks, nil, embedder, nil, nil)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewOrchestrator(repos.Documents, nil, nil, embedder, nil, nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewOrchestrator(repos.Documents, repos.Chunks, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestOrchestrator_EmbedsPendingDocuments(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seeded := seedDocuments(t, repos, 2)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.ChunksEmbedded)
	assert.Zero(t, result.Errored)

	for _, seededDoc := range seeded {
		doc, err := repos.Documents.GetDocument(ctx, seededDoc.Id)
		require.NoError(t, err)
		assert.False(t, doc.EmbeddedAt.IsZero())
		assert.Equal(t, 1, doc.ChunkCount)

		chunks, err := repos.Chunks.GetDocumentChunks(ctx, doc.Id)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, doc.Title, chunks[0].DocumentTitle)
		assert.Equal(t, doc.Title+"\n\n"+chunks[0].Text, chunks[0].EmbedText)
		assert.Len(t, chunks[0].Vector, 8)
	}

	dim, err := repos.Chunks.VectorDimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, dim)

	record, err := repos.Meta.LastRunRecord(ctx, core.RunKindEmbedding)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Processed)
}

func TestOrchestrator_SecondRunIsNoop(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seedDocuments(t, repos, 2)

	_, err := orch.Run(ctx)
	require.NoError(t, err)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.ChunksEmbedded)
}

func TestOrchestrator_ContentChangeReembeds(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seeded := seedDocuments(t, repos, 2)

	_, err := orch.Run(ctx)
	require.NoError(t, err)

	seeded[0].Content = "Replacement content for the first document."
	_, err = repos.Documents.TouchDocuments(ctx, seeded[0])
	require.NoError(t, err)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	chunks, err := repos.Chunks.GetDocumentChunks(ctx, seeded[0].Id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Replacement content")
}

func TestOrchestrator_EmptyContentMarkedEmbedded(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)

	added, err := repos.Documents.AddDocuments(ctx, &core.Document{Title: "Blank", Content: "   "})
	require.NoError(t, err)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.ChunksEmbedded)

	doc, err := repos.Documents.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.False(t, doc.EmbeddedAt.IsZero(), "empty documents must not be reprocessed forever")
	assert.Zero(t, doc.ChunkCount)

	chunks, err := repos.Chunks.GetDocumentChunks(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestOrchestrator_BatchBudget(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.BatchSize = 1
	orch, repos := setupOrchestrator(t, 8, config)
	seedDocuments(t, repos, 3)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
}

func TestOrchestrator_ConfiguredDimensionMismatchFailsFast(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seedDocuments(t, repos, 1)

	_, err := orch.Run(ctx)
	require.NoError(t, err)

	// A second orchestrator configured for a different model dimensionality
	// must refuse to run against the existing collection.
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 4
	config := DefaultConfig()
	config.ExpectedDimensions = 4
	mismatched, err := NewOrchestrator(repos.Documents, repos.Chunks, repos.Meta, embedder, config, nil)
	require.NoError(t, err)

	_, err = mismatched.Run(ctx)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestOrchestrator_StoredDimensionMismatchIsFatal(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seeded := seedDocuments(t, repos, 1)

	_, err := orch.Run(ctx)
	require.NoError(t, err)

	seeded[0].Content = "Changed so it needs re-embedding."
	_, err = repos.Documents.TouchDocuments(ctx, seeded[0])
	require.NoError(t, err)

	// Same store, but the embedder now produces 4-dimensional vectors and no
	// configured-side check catches it; the store must.
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 4
	mismatched, err := NewOrchestrator(repos.Documents, repos.Chunks, repos.Meta, embedder, nil, nil)
	require.NoError(t, err)

	_, err = mismatched.Run(ctx)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestOrchestrator_ResetClearsCollectionAndMetadata(t *testing.T) {
	ctx := context.Background()
	orch, repos := setupOrchestrator(t, 8, nil)
	seedDocuments(t, repos, 2)

	_, err := orch.Run(ctx)
	require.NoError(t, err)

	// After a reset, a different dimensionality is acceptable again.
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 4
	config := DefaultConfig()
	config.Reset = true
	config.ExpectedDimensions = 4
	fresh, err := NewOrchestrator(repos.Documents, repos.Chunks, repos.Meta, embedder, config, nil)
	require.NoError(t, err)

	result, err := fresh.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	dim, err := repos.Chunks.VectorDimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)
}

func TestOrchestrator_RetriesTransientEmbedderFailures(t *testing.T) {
	ctx := context.Background()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)
	seedDocuments(t, repos, 1)

	// Fail the first embedding call; the retry must recover.
	calls := 0
	flaky := mock.NewMockEmbedder()
	flaky.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("transient embedding failure")
		}
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{1, 0, 0, 0}
		}
		return vectors, nil
	}

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	orch, err := NewOrchestrator(repos.Documents, repos.Chunks, nil, flaky, config, nil)
	require.NoError(t, err)

	result, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, calls)
}
