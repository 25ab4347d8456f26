package pass

import (
	"context"
	"log/slog"
	"sync"

	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
	"github.com/panjf2000/ants/v2"
)

// reconciler makes relationship edges symmetric: for every discovered edge
// A -> B it schedules an update so B also references A. Back-references are
// accumulated during the main batch and applied afterwards as a second
// concurrency-limited phase.
//
// The phase is best-effort. A target that cannot be fetched or updated is
// logged and dropped; the forward edge is never rolled back. The update is
// last-writer-wins with no cross-document locking, so related-id sets are
// eventually rather than immediately consistent.
type reconciler struct {
	documents storage.DocumentRepository
	logger    *slog.Logger

	mu       sync.Mutex
	backrefs map[core.ID][]core.ID // target document -> new sources referencing it
}

func newReconciler(documents storage.DocumentRepository, logger *slog.Logger) *reconciler {
	return &reconciler{
		documents: documents,
		logger:    logger.With("phase", "reconcile"),
		backrefs:  make(map[core.ID][]core.ID),
	}
}

// record registers the forward edges source -> targets for later reversal.
// Safe for concurrent use.
func (r *reconciler) record(source core.ID, targets []core.ID) {
	if len(targets) == 0 {
		return
	}
	r.mu.Lock()
	for _, target := range targets {
		r.backrefs[target] = append(r.backrefs[target], source)
	}
	r.mu.Unlock()
}

// apply writes the accumulated back-references through the given pool and
// returns how many target documents were updated.
func (r *reconciler) apply(ctx context.Context, pool *ants.Pool) int {
	r.mu.Lock()
	pending := r.backrefs
	r.backrefs = make(map[core.ID][]core.ID)
	r.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for target, sources := range pending {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if r.applyOne(ctx, target, sources) {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			r.logger.Error("failed to submit reconciliation task", "target", target, "err", err)
		}
	}
	wg.Wait()

	r.logger.Info("reconciled back-references", "targets", len(pending), "applied", applied)
	return applied
}

// applyOne unions the new sources into the target's related set, preserving
// insertion order and truncating to the cap with oldest-first retention.
// Returns true if the target was written.
func (r *reconciler) applyOne(ctx context.Context, target core.ID, sources []core.ID) bool {
	doc, err := r.documents.GetDocument(ctx, target)
	if err != nil {
		r.logger.Warn("reconciliation target not found", "target", target, "err", err)
		return false
	}

	existing := make(map[core.ID]struct{}, len(doc.RelatedIds))
	for _, id := range doc.RelatedIds {
		existing[id] = struct{}{}
	}

	merged := doc.RelatedIds
	for _, source := range sources {
		if source == target {
			continue
		}
		if _, ok := existing[source]; ok {
			continue
		}
		existing[source] = struct{}{}
		merged = append(merged, source)
	}

	if len(merged) > core.RelatedIdsCap {
		merged = merged[:core.RelatedIdsCap]
	}
	if len(merged) == len(doc.RelatedIds) {
		return false
	}

	doc.RelatedIds = merged
	if _, err := r.documents.UpdateDocuments(ctx, doc); err != nil {
		r.logger.Warn("failed to persist back-references", "target", target, "err", err)
		return false
	}
	return true
}
