// Copyright 2025 Halcyon Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pass

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
	"github.com/panjf2000/ants/v2"
)

// Scheduler drives the enrichment passes to completion across the corpus
// within a per-run budget. It is idempotent and safely re-entrant: persisted
// pass levels make an interrupted run resume correctly, and a pass already
// reflected in a document's level is never re-run unless a reset condition is
// detected.
type Scheduler struct {
	documents storage.DocumentRepository
	atoms     storage.AtomRepository
	meta      storage.MetaRepository
	provider  ai.Provider
	pool      *ants.Pool

	batchSize  int
	timeLimit  time.Duration
	forceReset bool
	logger     *slog.Logger

	summaryExec *summaryExecutor
	atomsExec   *atomsExecutor
	relatedExec *relationshipsExecutor
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithBatchSize caps how many documents one run may start processing.
// Zero (the default) means unlimited.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) error {
		if n < 0 {
			n = 0
		}
		s.batchSize = n
		return nil
	}
}

// WithTimeLimit caps a run's wall-clock duration. The limit is checked
// between documents, never mid-document: an in-flight pass chain always runs
// to completion. Zero (the default) means unlimited.
func WithTimeLimit(d time.Duration) Option {
	return func(s *Scheduler) error {
		if d < 0 {
			d = 0
		}
		s.timeLimit = d
		return nil
	}
}

// WithConcurrency sets how many documents may be in flight against the AI
// services at once. Default is 1.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) error {
		if n < 1 {
			n = 1
		}

		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithForceReset clears every document's pass level at the start of the run,
// forcing full reprocessing regardless of content timestamps.
func WithForceReset(force bool) Option {
	return func(s *Scheduler) error {
		s.forceReset = force
		return nil
	}
}

// WithMetaRepository enables persisting a run record when a run completes.
func WithMetaRepository(meta storage.MetaRepository) Option {
	return func(s *Scheduler) error {
		s.meta = meta
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a new pass scheduler.
func NewScheduler(
	documents storage.DocumentRepository,
	atoms storage.AtomRepository,
	provider ai.Provider,
	opts ...Option,
) (*Scheduler, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if atoms == nil {
		return nil, ErrAtomRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	pool, err := ants.NewPool(defaultConcurrency)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		documents: documents,
		atoms:     atoms,
		provider:  provider,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}

	// Create executors after options are applied (so they get final config)
	model := provider.LanguageModel()
	s.summaryExec = newSummaryExecutor(documents, model, s.logger)
	s.atomsExec = newAtomsExecutor(documents, atoms, model, s.logger)
	s.relatedExec = newRelationshipsExecutor(documents, model, s.logger)

	return s, nil
}

// Run executes one scheduling cycle: reset detection, the main pass loop over
// incomplete documents (or refinement when the corpus is complete), then the
// reconciliation phase. Returns the accumulated counts.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	if err := s.provider.Ping(ctx); err != nil {
		return nil, fmt.Errorf("AI services unavailable: %w", err)
	}

	docs, err := s.documents.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	resetCount, err := s.resetStale(ctx, docs)
	if err != nil {
		return nil, err
	}

	// Documents already at the terminal level are excluded from the main
	// loop; they are only revisited by refinement, and only once the whole
	// corpus is complete.
	var pending []*core.Document
	for _, d := range docs {
		if d.PassLevel < core.LevelRelated {
			pending = append(pending, d)
		}
	}
	slices.SortStableFunc(pending, func(a, b *core.Document) int {
		return int(a.PassLevel) - int(b.PassLevel)
	})

	run := &runState{}
	run.result.Reset = resetCount
	rec := newReconciler(s.documents, s.logger)
	budget := newBudget(s.batchSize, s.timeLimit)

	if len(pending) > 0 {
		s.logger.Info("starting pass run", "pending", len(pending), "total", len(docs))
		s.dispatch(ctx, pending, run, rec, budget, false)
	} else if len(docs) > 0 {
		s.logger.Info("corpus complete, running relationship refinement", "total", len(docs))
		s.dispatch(ctx, docs, run, rec, budget, true)
	}

	run.mu.Lock()
	run.result.Reconciled = rec.apply(ctx, s.pool)
	run.mu.Unlock()

	result := run.snapshot()
	s.saveRunRecord(ctx, &result)

	s.logger.Info("pass run finished",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"errored", result.Errored,
		"reset", result.Reset,
		"atoms", result.AtomsCreated,
		"refined", result.Refined,
		"reconciled", result.Reconciled)
	return &result, nil
}

// Release releases the worker pool.
// The scheduler should not be used after calling Release.
func (s *Scheduler) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// resetStale clears the pass level of every document whose content changed
// since it was last enriched, or of all documents when a forced reset was
// requested. The cleared level is persisted so an interrupted run still
// reprocesses them next time. Returns how many documents were reset.
func (s *Scheduler) resetStale(ctx context.Context, docs []*core.Document) (int, error) {
	var stale []*core.Document
	for _, d := range docs {
		if d.PassLevel == core.LevelUnindexed {
			continue
		}
		if s.forceReset || d.NeedsReset() {
			d.PassLevel = core.LevelUnindexed
			stale = append(stale, d)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if _, err := s.documents.UpdateDocuments(ctx, stale...); err != nil {
		return 0, fmt.Errorf("reset pass levels: %w", err)
	}
	s.logger.Info("reset documents for reprocessing", "count", len(stale), "forced", s.forceReset)
	return len(stale), nil
}

// dispatch submits one task per document to the pool, checking the budget
// before each document. In refine mode, the relationships pass is re-run over
// already-complete documents instead of the normal pass chain.
func (s *Scheduler) dispatch(
	ctx context.Context,
	docs []*core.Document,
	run *runState,
	rec *reconciler,
	budget *budget,
	refine bool,
) {
	var wg sync.WaitGroup
	for _, doc := range docs {
		if !budget.allowStart() {
			s.logger.Info("run budget reached, stopping", "started", budget.started)
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if refine {
				s.refineDocument(ctx, doc, run, rec)
			} else {
				s.processDocument(ctx, doc, run, rec)
			}
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			run.addErrored()
			s.logger.Error("failed to submit document task", "document", doc.Id, "err", err)
		}
	}
	wg.Wait()
}

// processDocument runs all of a document's remaining passes sequentially,
// depth-first, so the smallest amount of work is lost if the run stops. A
// pass failure leaves the persisted level unchanged and aborts the chain; the
// next run retries from there.
func (s *Scheduler) processDocument(ctx context.Context, doc *core.Document, run *runState, rec *reconciler) {
	for doc.PassLevel < core.LevelRelated {
		switch doc.PassLevel {
		case core.LevelUnindexed:
			if err := s.summaryExec.run(ctx, doc); err != nil {
				s.logger.Error("summary pass failed", "document", doc.Id, "err", err)
				run.addErrored()
				return
			}

		case core.LevelSummarized:
			created, err := s.atomsExec.run(ctx, doc)
			if err != nil {
				s.logger.Error("atoms pass failed", "document", doc.Id, "err", err)
				run.addErrored()
				return
			}
			run.addAtoms(created)

		case core.LevelAtomized:
			related, skipped, err := s.relatedExec.run(ctx, doc)
			if skipped {
				run.addSkipped()
				return
			}
			if err != nil {
				s.logger.Error("relationships pass failed", "document", doc.Id, "err", err)
				run.addErrored()
				return
			}
			rec.record(doc.Id, related)
		}
	}
	run.addProcessed()
}

// refineDocument re-runs the relationships pass over an already-complete
// document so content added elsewhere in the corpus can be discovered.
func (s *Scheduler) refineDocument(ctx context.Context, doc *core.Document, run *runState, rec *reconciler) {
	related, skipped, err := s.relatedExec.run(ctx, doc)
	if skipped {
		run.addSkipped()
		return
	}
	if err != nil {
		s.logger.Error("refinement failed", "document", doc.Id, "err", err)
		run.addErrored()
		return
	}
	rec.record(doc.Id, related)
	run.addRefined()
}

func (s *Scheduler) saveRunRecord(ctx context.Context, result *Result) {
	if s.meta == nil {
		return
	}
	record := &core.RunRecord{
		Kind:       core.RunKindPasses,
		Processed:  result.Processed + result.Refined,
		Skipped:    result.Skipped,
		Errored:    result.Errored,
		FinishedAt: time.Now().UTC(),
	}
	if err := s.meta.SaveRunRecord(ctx, record); err != nil {
		s.logger.Warn("failed to save run record", "err", err)
	}
}

// budget tracks a run's document-count and wall-clock limits. Checks happen
// only between documents.
type budget struct {
	batchSize int
	deadline  time.Time
	started   int
}

func newBudget(batchSize int, timeLimit time.Duration) *budget {
	b := &budget{batchSize: batchSize}
	if timeLimit > 0 {
		b.deadline = time.Now().Add(timeLimit)
	}
	return b
}

// allowStart reports whether another document may begin, counting it as
// started if so. Not safe for concurrent use; only the dispatch loop calls it.
func (b *budget) allowStart() bool {
	if b.batchSize > 0 && b.started >= b.batchSize {
		return false
	}
	if !b.deadline.IsZero() && time.Now().After(b.deadline) {
		return false
	}
	b.started++
	return true
}
