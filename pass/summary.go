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

// summaryExecutor runs the summary pass: it requests a short free-text
// summary and advances the document to LevelSummarized.
type summaryExecutor struct {
	documents storage.DocumentRepository
	model     ai.LanguageModel
	logger    *slog.Logger
}

func newSummaryExecutor(documents storage.DocumentRepository, model ai.LanguageModel, logger *slog.Logger) *summaryExecutor {
	return &summaryExecutor{
		documents: documents,
		model:     model,
		logger:    logger.With("pass", "summary"),
	}
}

func (e *summaryExecutor) run(ctx context.Context, doc *core.Document) error {
	text, err := e.model.Complete(ctx, summarySystemPrompt, buildSummaryUserPrompt(doc), summaryMaxTokens)
	if err != nil {
		return fmt.Errorf("summary completion for document %d: %w", doc.Id, err)
	}

	doc.Summary = strings.TrimSpace(text)
	doc.EnrichedAt = time.Now().UTC()
	doc.PassLevel = core.LevelSummarized

	if _, err := e.documents.UpdateDocuments(ctx, doc); err != nil {
		return fmt.Errorf("persist summary for document %d: %w", doc.Id, err)
	}

	e.logger.Debug("summarized document", "document", doc.Id, "chars", len(doc.Summary))
	return nil
}
