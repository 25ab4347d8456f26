package pass

import (
	"testing"

	"github.com/halcyondata/enrich/core"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAtomContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "The Plant Opened.", "the plant opened"},
		{"collapsed whitespace", "a  b\t c", "a b c"},
		{"trailing period only", "ends. mid. sentence.", "ends. mid. sentence"},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAtomContent(tt.in))
		})
	}
}

func TestBuildAtoms(t *testing.T) {
	doc := &core.Document{Id: 42, Title: "Reactor history"}

	t.Run("assigns deterministic ids and document metadata", func(t *testing.T) {
		atoms := buildAtoms(doc, []parsedAtom{{Fact: "The reactor opened in 1974.", Confidence: 0.9}})
		assert.Len(t, atoms, 1)
		assert.Equal(t, core.AtomID(doc.Id, "The reactor opened in 1974."), atoms[0].Id)
		assert.Equal(t, doc.Id, atoms[0].DocumentId)
		assert.Equal(t, doc.Title, atoms[0].DocumentTitle)
	})

	t.Run("deduplicates by normalized content", func(t *testing.T) {
		atoms := buildAtoms(doc, []parsedAtom{
			{Fact: "The reactor opened in 1974.", Confidence: 0.5},
			{Fact: "the reactor  opened in 1974", Confidence: 0.4},
		})
		assert.Len(t, atoms, 1)
		assert.Equal(t, "The reactor opened in 1974.", atoms[0].Content)
	})

	t.Run("higher confidence wording wins on duplicate", func(t *testing.T) {
		atoms := buildAtoms(doc, []parsedAtom{
			{Fact: "the reactor opened in 1974", Confidence: 0.4},
			{Fact: "The reactor opened in 1974.", Confidence: 0.9},
		})
		assert.Len(t, atoms, 1)
		assert.Equal(t, "The reactor opened in 1974.", atoms[0].Content)
		assert.InDelta(t, 0.9, atoms[0].Confidence, 0.001)
		assert.Equal(t, core.AtomID(doc.Id, "The reactor opened in 1974."), atoms[0].Id)
	})

	t.Run("blank facts skipped", func(t *testing.T) {
		atoms := buildAtoms(doc, []parsedAtom{{Fact: "  "}, {Fact: "Kept."}})
		assert.Len(t, atoms, 1)
	})
}
