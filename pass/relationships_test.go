package pass

import (
	"testing"

	"github.com/halcyondata/enrich/core"
	"github.com/stretchr/testify/assert"
)

func TestValidateRelatedIds(t *testing.T) {
	candidates := []candidate{{Id: 1}, {Id: 2}, {Id: 3}}

	t.Run("keeps only candidate ids in response order", func(t *testing.T) {
		got := validateRelatedIds([]core.ID{3, 1}, candidates)
		assert.Equal(t, []core.ID{3, 1}, got)
	})

	t.Run("invented ids are discarded", func(t *testing.T) {
		got := validateRelatedIds([]core.ID{999, 2, 12345}, candidates)
		assert.Equal(t, []core.ID{2}, got)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got := validateRelatedIds([]core.ID{2, 2, 1, 2}, candidates)
		assert.Equal(t, []core.ID{2, 1}, got)
	})

	t.Run("empty response", func(t *testing.T) {
		assert.Empty(t, validateRelatedIds(nil, candidates))
	})

	t.Run("capped at the related-ids limit", func(t *testing.T) {
		var many []candidate
		var ids []core.ID
		for i := 1; i <= core.RelatedIdsCap+10; i++ {
			many = append(many, candidate{Id: core.ID(i)})
			ids = append(ids, core.ID(i))
		}
		got := validateRelatedIds(ids, many)
		assert.Len(t, got, core.RelatedIdsCap)
		assert.Equal(t, core.ID(1), got[0])
	})
}
