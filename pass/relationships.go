package pass

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
)

// candidate is one corpus document offered to the model as a potential
// relation.
type candidate struct {
	Id        core.ID
	Title     string
	Summary   string
	UpdatedAt time.Time
}

// relationshipsExecutor runs the relationships pass: it asks the model to
// pick related documents from a recency-ranked candidate list and advances
// the document to LevelRelated. The model's output is never trusted as
// authoritative; every returned ID is validated against the candidate set.
type relationshipsExecutor struct {
	documents storage.DocumentRepository
	model     ai.LanguageModel
	logger    *slog.Logger
}

func newRelationshipsExecutor(documents storage.DocumentRepository, model ai.LanguageModel, logger *slog.Logger) *relationshipsExecutor {
	return &relationshipsExecutor{
		documents: documents,
		model:     model,
		logger:    logger.With("pass", "relationships"),
	}
}

// run executes the pass. A document without a summary indicates an
// out-of-order state and is skipped rather than failed; skipped is reported
// separately from the error. On success the validated forward edges are
// returned for reconciliation.
func (e *relationshipsExecutor) run(ctx context.Context, doc *core.Document) (related []core.ID, skipped bool, err error) {
	if strings.TrimSpace(doc.Summary) == "" {
		e.logger.Warn("document has no summary, skipping relationships", "document", doc.Id)
		return nil, true, nil
	}

	candidates, err := e.buildCandidates(ctx, doc.Id)
	if err != nil {
		return nil, false, fmt.Errorf("build candidates for document %d: %w", doc.Id, err)
	}

	var valid []core.ID
	if len(candidates) > 0 {
		text, err := e.model.Complete(ctx, relatedPromptTemplate, buildRelatedUserPrompt(doc, candidates), relatedMaxTokens)
		if err != nil {
			return nil, false, fmt.Errorf("relationships completion for document %d: %w", doc.Id, err)
		}
		valid = validateRelatedIds(parseRelatedIds(text), candidates)
	}

	doc.RelatedIds = valid
	doc.EnrichedAt = time.Now().UTC()
	doc.PassLevel = core.LevelRelated

	if _, err := e.documents.UpdateDocuments(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("persist relationships for document %d: %w", doc.Id, err)
	}

	e.logger.Debug("related document", "document", doc.Id, "candidates", len(candidates), "related", len(valid))
	return valid, false, nil
}

// buildCandidates draws candidates from the current corpus state: every
// document with a summary except the one being processed, ranked by recency
// of UpdatedAt, capped at candidateLimit. The store is re-read here so that
// summaries written earlier in the same run are visible.
func (e *relationshipsExecutor) buildCandidates(ctx context.Context, self core.ID) ([]candidate, error) {
	docs, err := e.documents.GetAllDocuments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(docs))
	for _, d := range docs {
		if d.Id == self || strings.TrimSpace(d.Summary) == "" {
			continue
		}
		out = append(out, candidate{
			Id:        d.Id,
			Title:     d.Title,
			Summary:   d.Summary,
			UpdatedAt: d.UpdatedAt,
		})
	}

	slices.SortFunc(out, func(a, b candidate) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	if len(out) > candidateLimit {
		out = out[:candidateLimit]
	}
	return out, nil
}

// validateRelatedIds keeps only IDs present in the candidate set, preserving
// response order, dropping duplicates, and capping at RelatedIdsCap.
func validateRelatedIds(ids []core.ID, candidates []candidate) []core.ID {
	allowed := make(map[core.ID]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c.Id] = struct{}{}
	}

	var out []core.ID
	seen := make(map[core.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := allowed[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == core.RelatedIdsCap {
			break
		}
	}
	return out
}
