package pass

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
)

// atomsExecutor runs the atom-extraction pass: it replaces the document's
// whole atom set and advances the document to LevelAtomized. A document with
// zero extractable facts still advances; empty is a valid outcome.
type atomsExecutor struct {
	documents storage.DocumentRepository
	atoms     storage.AtomRepository
	model     ai.LanguageModel
	logger    *slog.Logger
}

func newAtomsExecutor(
	documents storage.DocumentRepository,
	atoms storage.AtomRepository,
	model ai.LanguageModel,
	logger *slog.Logger,
) *atomsExecutor {
	return &atomsExecutor{
		documents: documents,
		atoms:     atoms,
		model:     model,
		logger:    logger.With("pass", "atoms"),
	}
}

// run executes the pass and returns how many atoms were persisted.
func (e *atomsExecutor) run(ctx context.Context, doc *core.Document) (int, error) {
	text, err := e.model.Complete(ctx, buildAtomsSystemPrompt(), buildAtomsUserPrompt(doc), atomsMaxTokens)
	if err != nil {
		return 0, fmt.Errorf("atoms completion for document %d: %w", doc.Id, err)
	}

	parsed := parseAtoms(text)
	if len(parsed) == 0 {
		e.logger.Debug("no atoms extracted", "document", doc.Id)
	}

	atoms := buildAtoms(doc, parsed)
	if err := e.atoms.ReplaceDocumentAtoms(ctx, doc.Id, atoms); err != nil {
		return 0, fmt.Errorf("replace atoms for document %d: %w", doc.Id, err)
	}

	doc.EnrichedAt = time.Now().UTC()
	doc.PassLevel = core.LevelAtomized
	if _, err := e.documents.UpdateDocuments(ctx, doc); err != nil {
		return 0, fmt.Errorf("persist pass level for document %d: %w", doc.Id, err)
	}

	e.logger.Debug("atomized document", "document", doc.Id, "atoms", len(atoms))
	return len(atoms), nil
}

// buildAtoms converts parsed facts into atom records, deduplicating by
// normalized content. On a duplicate, the higher-confidence wording wins.
func buildAtoms(doc *core.Document, parsed []parsedAtom) []*core.Atom {
	seen := make(map[string]int, len(parsed))
	out := make([]*core.Atom, 0, len(parsed))

	for _, p := range parsed {
		norm := normalizeAtomContent(p.Fact)
		if norm == "" {
			continue
		}

		if i, ok := seen[norm]; ok {
			if p.Confidence > out[i].Confidence {
				out[i].Id = core.AtomID(doc.Id, p.Fact)
				out[i].Content = p.Fact
				out[i].Confidence = p.Confidence
			}
			continue
		}

		seen[norm] = len(out)
		out = append(out, &core.Atom{
			Id:            core.AtomID(doc.Id, p.Fact),
			DocumentId:    doc.Id,
			DocumentTitle: doc.Title,
			Content:       p.Fact,
			Confidence:    p.Confidence,
		})
	}

	return out
}

// normalizeAtomContent canonicalizes a fact for duplicate detection:
// lowercase, collapsed whitespace, trailing period removed.
func normalizeAtomContent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	return strings.Join(strings.Fields(s), " ")
}
