package pass

import (
	"context"
	"log/slog"
	"testing"

	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage/badger"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReconciler(t *testing.T) (*reconciler, *badger.MemoryRepositories, *ants.Pool) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	return newReconciler(repos.Documents, slog.Default()), repos, pool
}

func TestReconciler_AddsBackReference(t *testing.T) {
	ctx := context.Background()
	rec, repos, pool := setupReconciler(t)

	added, err := repos.Documents.AddDocuments(ctx,
		&core.Document{Title: "a", Content: "a"},
		&core.Document{Title: "b", Content: "b"},
	)
	require.NoError(t, err)
	a, b := added[0], added[1]

	// Forward edge a -> b; the reverse edge must appear on b.
	rec.record(a.Id, []core.ID{b.Id})
	applied := rec.apply(ctx, pool)
	assert.Equal(t, 1, applied)

	got, err := repos.Documents.GetDocument(ctx, b.Id)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{a.Id}, got.RelatedIds)
}

func TestReconciler_AlreadySymmetricIsNoop(t *testing.T) {
	ctx := context.Background()
	rec, repos, pool := setupReconciler(t)

	added, err := repos.Documents.AddDocuments(ctx,
		&core.Document{Title: "a", Content: "a"},
		&core.Document{Title: "b", Content: "b"},
	)
	require.NoError(t, err)
	a, b := added[0], added[1]

	b.RelatedIds = []core.ID{a.Id}
	_, err = repos.Documents.UpdateDocuments(ctx, b)
	require.NoError(t, err)

	rec.record(a.Id, []core.ID{b.Id})
	assert.Equal(t, 0, rec.apply(ctx, pool))
}

func TestReconciler_RespectsCapOldestFirst(t *testing.T) {
	ctx := context.Background()
	rec, repos, pool := setupReconciler(t)

	added, err := repos.Documents.AddDocuments(ctx,
		&core.Document{Title: "target", Content: "t"},
		&core.Document{Title: "source", Content: "s"},
	)
	require.NoError(t, err)
	target, source := added[0], added[1]

	// Fill the target's related set to the cap with synthetic ids.
	full := make([]core.ID, core.RelatedIdsCap)
	for i := range full {
		full[i] = core.ID(1000 + i)
	}
	target.RelatedIds = full
	_, err = repos.Documents.UpdateDocuments(ctx, target)
	require.NoError(t, err)

	rec.record(source.Id, []core.ID{target.Id})
	assert.Equal(t, 0, rec.apply(ctx, pool))

	got, err := repos.Documents.GetDocument(ctx, target.Id)
	require.NoError(t, err)
	assert.Len(t, got.RelatedIds, core.RelatedIdsCap)
	assert.Equal(t, full, got.RelatedIds, "oldest-discovered entries are retained")
}

func TestReconciler_MissingTargetIsBestEffort(t *testing.T) {
	ctx := context.Background()
	rec, _, pool := setupReconciler(t)

	rec.record(1, []core.ID{424242})
	assert.Equal(t, 0, rec.apply(ctx, pool))
}

func TestReconciler_ApplyDrainsPending(t *testing.T) {
	ctx := context.Background()
	rec, repos, pool := setupReconciler(t)

	added, err := repos.Documents.AddDocuments(ctx,
		&core.Document{Title: "a", Content: "a"},
		&core.Document{Title: "b", Content: "b"},
	)
	require.NoError(t, err)

	rec.record(added[0].Id, []core.ID{added[1].Id})
	assert.Equal(t, 1, rec.apply(ctx, pool))
	assert.Equal(t, 0, rec.apply(ctx, pool), "second apply has nothing to do")
}
