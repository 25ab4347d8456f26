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


package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/chunker"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/storage"
	"github.com/panjf2000/ants/v2"
)

// Config holds configuration for an embedding run.
type Config struct {
	// BatchSize caps how many documents one run may start. 0 means unlimited.
	BatchSize int

	// TimeLimit caps a run's wall-clock duration, checked between documents.
	// 0 means unlimited.
	TimeLimit time.Duration

	// SubBatchSize is how many chunk texts are embedded per service call.
	SubBatchSize int

	// Concurrency is how many documents may be embedded in flight at once.
	Concurrency int

	// MaxRetries is the maximum number of retry attempts for embedding calls.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Reset clears all embedding metadata and deletes the chunk collection
	// before reprocessing everything.
	Reset bool

	// ExpectedDimensions is the dimensionality the configured embedding model
	// produces. When set, it is checked against the stored collection before
	// any work starts. 0 disables the configured-side check.
	ExpectedDimensions int

	// ReportInterval is how often to report progress (number of documents).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SubBatchSize:   20,
		Concurrency:    1,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		ReportInterval: 10,
	}
}

// Result reports what one embedding run accomplished.
type Result struct {
	// Processed is the number of documents whose chunk set was brought in
	// sync, including empty documents marked embedded with zero chunks.
	Processed int

	// Errored is the number of documents whose embedding failed. Their
	// embedding state is unchanged, so the next run retries them.
	Errored int

	// ChunksEmbedded is the total number of chunk records written.
	ChunksEmbedded int
}

// Orchestrator drives the chunk-and-embed lifecycle across the corpus.
type Orchestrator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	meta      storage.MetaRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	logger    *slog.Logger
}

// NewOrchestrator creates a new embedding orchestrator.
// meta may be nil, in which case no run record is persisted.
// progress: where to write progress output (typically os.Stderr); nil discards it.
func NewOrchestrator(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	meta storage.MetaRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.SubBatchSize < 1 {
		config.SubBatchSize = 20
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Orchestrator{
		documents: documents,
		chunks:    chunks,
		meta:      meta,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		logger:    slog.Default().With("component", "embedding"),
	}, nil
}

// Run executes one embedding cycle: optional global reset, dimension safety
// check, then (re)embedding of every document whose chunk set is out of sync
// with its content, within the run budget.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if o.config.Reset {
		if err := o.reset(ctx); err != nil {
			return nil, err
		}
	}

	if err := o.checkDimensions(ctx); err != nil {
		return nil, err
	}

	docs, err := o.documents.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	var pending []*core.Document
	for _, d := range docs {
		if d.NeedsEmbedding() {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintf(o.progress, "All %d documents are up to date\n", len(docs))
		return &Result{}, nil
	}

	fmt.Fprintf(o.progress, "Embedding %d of %d documents (sub-batch size: %d)\n",
		len(pending), len(docs), o.config.SubBatchSize)

	tracker := NewProgressTracker(o.progress, len(pending), o.config.ReportInterval)
	tracker.Start()

	result, err := o.embedAll(ctx, pending, tracker)
	if err != nil {
		return nil, err
	}

	tracker.Finish()
	o.saveRunRecord(ctx, result)

	elapsed := tracker.Elapsed()
	fmt.Fprintf(o.progress, "Embedding complete. %d documents, %d chunks, %d errors in %v\n",
		result.Processed, result.ChunksEmbedded, result.Errored, elapsed.Round(time.Second))
	return result, nil
}

// embedAll dispatches per-document embedding through a bounded pool, checking
// the run budget before each document. A dimension mismatch reported by the
// store is fatal for the whole run; any other per-document failure is counted
// and skipped.
func (o *Orchestrator) embedAll(ctx context.Context, pending []*core.Document, tracker *ProgressTracker) (*Result, error) {
	pool, err := ants.NewPool(o.config.Concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		result   Result
		fatalErr error
	)

	var deadline time.Time
	if o.config.TimeLimit > 0 {
		deadline = time.Now().Add(o.config.TimeLimit)
	}

	started := 0
	for _, doc := range pending {
		if o.config.BatchSize > 0 && started >= o.config.BatchSize {
			o.logger.Info("document budget reached, stopping", "started", started)
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			o.logger.Info("time budget reached, stopping", "started", started)
			break
		}

		mu.Lock()
		stop := fatalErr != nil
		mu.Unlock()
		if stop {
			break
		}

		started++
		wg.Add(1)
		task := func() {
			defer wg.Done()
			chunksWritten, err := o.embedDocument(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Processed++
				result.ChunksEmbedded += chunksWritten
			case errors.Is(err, storage.ErrDimensionMismatch):
				if fatalErr == nil {
					fatalErr = fmt.Errorf(
						"embedding dimensionality conflicts with the stored collection, reset embeddings and re-run: %w", err)
				}
			default:
				o.logger.Error("failed to embed document", "document", doc.Id, "err", err)
				result.Errored++
			}
			tracker.Increment(1)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			result.Errored++
			mu.Unlock()
			o.logger.Error("failed to submit embedding task", "document", doc.Id, "err", err)
		}
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}
	return &result, nil
}

// embedDocument brings one document's chunk set in sync and returns how many
// chunk records were written. Documents producing zero chunks are still
// marked embedded so empty content is not reprocessed forever.
func (o *Orchestrator) embedDocument(ctx context.Context, doc *core.Document) (int, error) {
	segments := chunker.Split(doc.Title, doc.Content)

	if len(segments) == 0 {
		doc.EmbeddedAt = time.Now().UTC()
		doc.ChunkCount = 0
		if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
			return 0, fmt.Errorf("mark empty document %d embedded: %w", doc.Id, err)
		}
		return 0, nil
	}

	vectors, err := o.embedSegments(ctx, doc.Title, segments)
	if err != nil {
		return 0, err
	}

	records := make([]*core.Chunk, len(segments))
	for i, seg := range segments {
		records[i] = &core.Chunk{
			DocumentId:    doc.Id,
			Index:         seg.Index,
			DocumentTitle: doc.Title,
			Text:          seg.Text,
			EmbedText:     chunker.EmbedText(doc.Title, seg.Text),
			Vector:        vectors[i],
		}
	}

	if err := o.chunks.ReplaceDocumentChunks(ctx, doc.Id, records); err != nil {
		return 0, fmt.Errorf("replace chunks for document %d: %w", doc.Id, err)
	}

	doc.EmbeddedAt = time.Now().UTC()
	doc.ChunkCount = len(records)
	if _, err := o.documents.UpdateDocuments(ctx, doc); err != nil {
		return 0, fmt.Errorf("persist embedding state for document %d: %w", doc.Id, err)
	}

	return len(records), nil
}

// embedSegments embeds the segments' title-prefixed texts in sub-batches,
// retrying each sub-batch with exponential backoff. Returned vectors are
// normalized to unit length.
func (o *Orchestrator) embedSegments(ctx context.Context, title string, segments []chunker.Segment) ([][]float32, error) {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = chunker.EmbedText(title, seg.Text)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.config.SubBatchSize {
		end := start + o.config.SubBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var embedded [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embedded, err = o.embedder.EmbedTexts(ctx, batch)
			return err
		}, o.config.MaxRetries, o.config.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("embed sub-batch after %d attempts: %w", o.config.MaxRetries, err)
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embedded))
		}

		for _, v := range embedded {
			vectors = append(vectors, NormalizeVector(v))
		}
	}

	return vectors, nil
}

// reset clears all embedding state: the chunk collection (including its
// recorded dimensionality) and every document's embedding metadata.
func (o *Orchestrator) reset(ctx context.Context) error {
	if err := o.chunks.DeleteAllChunks(ctx); err != nil {
		return fmt.Errorf("delete chunk collection: %w", err)
	}

	docs, err := o.documents.GetAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("load corpus for reset: %w", err)
	}

	var stale []*core.Document
	for _, d := range docs {
		if d.EmbeddedAt.IsZero() && d.ChunkCount == 0 {
			continue
		}
		d.EmbeddedAt = time.Time{}
		d.ChunkCount = 0
		stale = append(stale, d)
	}
	if len(stale) == 0 {
		return nil
	}

	if _, err := o.documents.UpdateDocuments(ctx, stale...); err != nil {
		return fmt.Errorf("clear embedding metadata: %w", err)
	}
	o.logger.Info("reset embedding state", "documents", len(stale))
	return nil
}

// checkDimensions fails fast when the configured model's dimensionality
// disagrees with what the chunk collection already holds.
func (o *Orchestrator) checkDimensions(ctx context.Context) error {
	if o.config.ExpectedDimensions <= 0 {
		return nil
	}
	stored, err := o.chunks.VectorDimension(ctx)
	if err != nil {
		return fmt.Errorf("read stored vector dimensionality: %w", err)
	}
	if stored > 0 && stored != o.config.ExpectedDimensions {
		return fmt.Errorf(
			"configured model produces %d-dimensional vectors but the collection holds %d-dimensional vectors, reset embeddings and re-run: %w",
			o.config.ExpectedDimensions, stored, storage.ErrDimensionMismatch)
	}
	return nil
}

func (o *Orchestrator) saveRunRecord(ctx context.Context, result *Result) {
	if o.meta == nil {
		return
	}
	record := &core.RunRecord{
		Kind:       core.RunKindEmbedding,
		Processed:  result.Processed,
		Errored:    result.Errored,
		FinishedAt: time.Now().UTC(),
	}
	if err := o.meta.SaveRunRecord(ctx, record); err != nil {
		o.logger.Warn("failed to save run record", "err", err)
	}
}
