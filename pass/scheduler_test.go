package pass

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/ai/mock"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel answers each pass with a canned response, keyed off the
// system prompt.
func scriptedModel(summary, atomsJSON, relatedJSON string) *mock.MockLanguageModel {
	m := mock.NewMockLanguageModel("")
	m.CompleteFunc = func(ctx context.Context, system, user string, maxTokens int) (string, error) {
		switch system {
		case summarySystemPrompt:
			return summary, nil
		case buildAtomsSystemPrompt():
			return atomsJSON, nil
		case relatedPromptTemplate:
			return relatedJSON, nil
		}
		return "", fmt.Errorf("unexpected system prompt: %.40q", system)
	}
	return m
}

func setupScheduler(t *testing.T, model *mock.MockLanguageModel, opts ...Option) (*Scheduler, *badger.MemoryRepositories) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), model)
	opts = append([]Option{WithMetaRepository(repos.Meta)}, opts...)
	sched, err := NewScheduler(repos.Documents, repos.Atoms, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(sched.Release)

	return sched, repos
}

func seedDocuments(t *testing.T, repos *badger.MemoryRepositories, n int) []*core.Document {
	ctx := context.Background()
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			Title:   fmt.Sprintf("Document %d", i+1),
			Content: fmt.Sprintf("Content for document %d about reactors.", i+1),
		}
	}
	added, err := repos.Documents.AddDocuments(ctx, docs...)
	require.NoError(t, err)
	return added
}

func TestNewScheduler_Validation(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)
	provider := mock.NewMockProvider()

	_, err = NewScheduler(nil, repos.Atoms, provider)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewScheduler(repos.Documents, nil, provider)
	assert.ErrorIs(t, err, ErrAtomRepositoryRequired)

	_, err = NewScheduler(repos.Documents, repos.Atoms, nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}

func TestScheduler_FullRun(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel(
		"A concise summary.",
		`[{"fact":"The reactor opened in 1974.","confidence":0.9}]`,
		`[]`,
	)
	sched, repos := setupScheduler(t, model)
	seeded := seedDocuments(t, repos, 2)

	result, err := sched.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Errored)
	assert.Equal(t, 2, result.AtomsCreated)

	for _, seededDoc := range seeded {
		doc, err := repos.Documents.GetDocument(ctx, seededDoc.Id)
		require.NoError(t, err)
		assert.Equal(t, core.LevelRelated, doc.PassLevel)
		assert.Equal(t, "A concise summary.", doc.Summary)
		assert.False(t, doc.EnrichedAt.IsZero())
		assert.True(t, doc.UpdatedAt.Equal(seededDoc.UpdatedAt), "enrichment must not look like a content change")

		atoms, err := repos.Atoms.GetDocumentAtoms(ctx, doc.Id)
		require.NoError(t, err)
		assert.Len(t, atoms, 1)
	}

	record, err := repos.Meta.LastRunRecord(ctx, core.RunKindPasses)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Processed)
}

func TestScheduler_CompleteCorpusRunsRefinement(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", `[]`, `[]`)
	sched, repos := setupScheduler(t, model)
	seedDocuments(t, repos, 2)

	_, err := sched.Run(ctx)
	require.NoError(t, err)

	// Second run: nothing pending, so relationships are refined instead.
	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Equal(t, 2, result.Refined)
	assert.Zero(t, result.Errored)
}

func TestScheduler_ContentChangeForcesReprocessing(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", `[]`, `[]`)
	sched, repos := setupScheduler(t, model)
	seeded := seedDocuments(t, repos, 2)

	_, err := sched.Run(ctx)
	require.NoError(t, err)

	// Re-ingest one document's content; only it should be reprocessed.
	seeded[0].Content = "Entirely new content."
	_, err = repos.Documents.TouchDocuments(ctx, seeded[0])
	require.NoError(t, err)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Reset)
	assert.Zero(t, result.Refined)

	doc, err := repos.Documents.GetDocument(ctx, seeded[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.LevelRelated, doc.PassLevel)
}

func TestScheduler_ForceResetReprocessesEverything(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", `[]`, `[]`)
	sched, repos := setupScheduler(t, model)
	seedDocuments(t, repos, 2)

	_, err := sched.Run(ctx)
	require.NoError(t, err)

	// A second scheduler over the same store with the reset flag set must
	// reprocess the whole corpus instead of refining it.
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), model)
	forced, err := NewScheduler(repos.Documents, repos.Atoms, provider, WithForceReset(true))
	require.NoError(t, err)
	t.Cleanup(forced.Release)

	result, err := forced.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Reset)
	assert.Zero(t, result.Refined)
}

func TestScheduler_BatchBudget(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", `[]`, `[]`)
	sched, repos := setupScheduler(t, model, WithBatchSize(1))
	seedDocuments(t, repos, 3)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	// The remaining documents are untouched and picked up next time.
	unindexed, err := repos.Documents.GetDocumentsByPassLevel(ctx, core.LevelUnindexed)
	require.NoError(t, err)
	assert.Len(t, unindexed, 2)
}

func TestScheduler_MalformedAtomsResponseStillAdvances(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", "I found no facts worth noting.", `[]`)
	sched, repos := setupScheduler(t, model)
	seeded := seedDocuments(t, repos, 1)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Errored)
	assert.Zero(t, result.AtomsCreated)

	doc, err := repos.Documents.GetDocument(ctx, seeded[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.LevelRelated, doc.PassLevel)
}

func TestScheduler_MissingSummaryIsSkipped(t *testing.T) {
	ctx := context.Background()
	model := scriptedModel("A concise summary.", `[]`, `[]`)
	sched, repos := setupScheduler(t, model)
	seeded := seedDocuments(t, repos, 1)

	// An atomized document without a summary is an out-of-order state.
	// EnrichedAt is set past UpdatedAt so this is not mistaken for a
	// content change.
	seeded[0].PassLevel = core.LevelAtomized
	seeded[0].EnrichedAt = time.Now().UTC()
	_, err := repos.Documents.UpdateDocuments(ctx, seeded[0])
	require.NoError(t, err)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Errored)

	doc, err := repos.Documents.GetDocument(ctx, seeded[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.LevelAtomized, doc.PassLevel, "a skipped pass leaves the level unchanged")
}

func TestScheduler_TransientFailureLeavesLevelUnchanged(t *testing.T) {
	ctx := context.Background()
	model := mock.NewMockLanguageModel("")
	model.CompleteFunc = func(ctx context.Context, system, user string, maxTokens int) (string, error) {
		return "", errors.New("service unavailable")
	}
	sched, repos := setupScheduler(t, model)
	seeded := seedDocuments(t, repos, 1)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errored)
	assert.Zero(t, result.Processed)

	doc, err := repos.Documents.GetDocument(ctx, seeded[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.LevelUnindexed, doc.PassLevel)
}

func TestScheduler_RelationshipsValidatedAndReconciled(t *testing.T) {
	ctx := context.Background()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)
	seeded := seedDocuments(t, repos, 2)
	first, second := seeded[0], seeded[1]

	// The model answers the relationships pass with both corpus ids plus an
	// invented one. Validation must keep only real candidates, which also
	// drops the document's own id since it is never a candidate for itself.
	model := mock.NewMockLanguageModel("")
	model.CompleteFunc = func(ctx context.Context, system, user string, maxTokens int) (string, error) {
		switch system {
		case summarySystemPrompt:
			return "A concise summary.", nil
		case buildAtomsSystemPrompt():
			return `[]`, nil
		case relatedPromptTemplate:
			return fmt.Sprintf("[999999, %d, %d]", first.Id, second.Id), nil
		}
		return "", fmt.Errorf("unexpected system prompt")
	}

	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), model)
	sched, err := NewScheduler(repos.Documents, repos.Atoms, provider)
	require.NoError(t, err)
	t.Cleanup(sched.Release)

	result, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	// The first document reached its relationships pass before the second
	// had a summary, so its forward set is empty; reconciliation restores
	// symmetry from the second document's edge.
	assert.Equal(t, 1, result.Reconciled)

	firstDoc, err := repos.Documents.GetDocument(ctx, first.Id)
	require.NoError(t, err)
	secondDoc, err := repos.Documents.GetDocument(ctx, second.Id)
	require.NoError(t, err)

	assert.Equal(t, []core.ID{first.Id}, secondDoc.RelatedIds)
	assert.Equal(t, []core.ID{second.Id}, firstDoc.RelatedIds)
	assert.NotContains(t, firstDoc.RelatedIds, core.ID(999999))
}

func TestScheduler_PingFailureFailsRun(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := &failingPingProvider{inner: mock.NewMockProviderWithServices(embedder, mock.NewMockLanguageModel(""))}

	sched, err := NewScheduler(repos.Documents, repos.Atoms, provider)
	require.NoError(t, err)
	t.Cleanup(sched.Release)

	_, err = sched.Run(context.Background())
	assert.Error(t, err)
}

// failingPingProvider wraps a mock provider but fails health checks.
type failingPingProvider struct {
	inner ai.Provider
}

func (p *failingPingProvider) Embedder() ai.Embedder           { return p.inner.Embedder() }
func (p *failingPingProvider) LanguageModel() ai.LanguageModel { return p.inner.LanguageModel() }
func (p *failingPingProvider) Ping(ctx context.Context) error  { return errors.New("unreachable") }
func (p *failingPingProvider) Close() error                    { return p.inner.Close() }
