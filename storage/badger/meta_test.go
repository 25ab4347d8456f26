package badger

import (
	"context"
	"testing"
	"time"

	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecordRoundTrip(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Meta.LastRunRecord(ctx, core.RunKindPasses)
	require.ErrorIs(t, err, storage.ErrNotFound)

	rec := &core.RunRecord{
		Kind:      core.RunKindPasses,
		Processed: 10,
		Skipped:   1,
		Errored:   2,
	}
	require.NoError(t, repos.Meta.SaveRunRecord(ctx, rec))
	assert.False(t, rec.FinishedAt.IsZero(), "save should stamp FinishedAt")

	loaded, err := repos.Meta.LastRunRecord(ctx, core.RunKindPasses)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Processed)
	assert.Equal(t, 1, loaded.Skipped)
	assert.Equal(t, 2, loaded.Errored)

	// Records are keyed by kind
	_, err = repos.Meta.LastRunRecord(ctx, core.RunKindEmbedding)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunRecordOverwrite(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	first := &core.RunRecord{Kind: core.RunKindEmbedding, Processed: 3, FinishedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, repos.Meta.SaveRunRecord(ctx, first))

	second := &core.RunRecord{Kind: core.RunKindEmbedding, Processed: 7}
	require.NoError(t, repos.Meta.SaveRunRecord(ctx, second))

	loaded, err := repos.Meta.LastRunRecord(ctx, core.RunKindEmbedding)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Processed)
}
