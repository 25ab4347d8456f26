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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/halcyondata/enrich"
	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/core"
	"github.com/halcyondata/enrich/embedding"
	"github.com/halcyondata/enrich/pass"
	"github.com/halcyondata/enrich/search"
	"github.com/halcyondata/enrich/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "enrich",
		Usage: "Incremental multi-pass document enrichment pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run enrichment passes over the document corpus",
				Action: runCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "completion-host",
						Usage: "Completion service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "completion-model",
						Usage:    "Completion model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to completion-host)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name, used only for the availability check",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Maximum documents to start processing in one run (0 = unlimited)",
					},
					&cli.DurationFlag{
						Name:  "time-limit",
						Usage: "Wall-clock budget for the run, checked between documents (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of documents in flight against the AI services",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "force-reset",
						Usage: "Clear every document's pass level and reprocess the whole corpus",
					},
				),
			},
			{
				Name:   "embed",
				Usage:  "Chunk and embed documents whose content is out of sync",
				Action: embedCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Expected embedding dimensionality (0 = no configured check)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Maximum documents to embed in one run (0 = unlimited)",
					},
					&cli.DurationFlag{
						Name:  "time-limit",
						Usage: "Wall-clock budget for the run (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "sub-batch-size",
						Usage: "Chunk texts embedded per service call",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of documents embedded in flight at once",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Delete all chunks and embedding metadata before reprocessing",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search embedded document chunks",
				ArgsUsage: "query words...",
				Action:    searchCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity floor for semantic matches",
						Value: 0.60,
					},
				),
			},
			{
				Name:   "seed",
				Usage:  "Load sample documents into the store",
				Action: seedCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "src",
						Usage: "File of seed documents (blank-line separated, first line is the title)",
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show corpus pass levels, embedding state, and last run records",
				Action: statusCommand,
				Flags:  dbFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	completionHost := c.String("completion-host")
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = completionHost
	}

	aiConfig := ai.NewConfig(
		ai.WithCompletionHost(completionHost),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := enrich.NewDatabase(c.String("db"), enrich.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	scheduler, err := db.NewScheduler(
		pass.WithBatchSize(c.Int("batch-size")),
		pass.WithTimeLimit(c.Duration("time-limit")),
		pass.WithConcurrency(c.Int("concurrency")),
		pass.WithForceReset(c.Bool("force-reset")),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer scheduler.Release()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Completion host: %s\n", completionHost)
	fmt.Fprintf(os.Stderr, "Completion model: %s\n", c.String("completion-model"))
	fmt.Fprintln(os.Stderr)

	result, err := scheduler.Run(ctx)
	if err != nil {
		return fmt.Errorf("enrichment run failed: %w", err)
	}

	fmt.Printf("Processed: %d\n", result.Processed)
	fmt.Printf("Skipped: %d\n", result.Skipped)
	fmt.Printf("Errored: %d\n", result.Errored)
	fmt.Printf("Reset: %d\n", result.Reset)
	fmt.Printf("Atoms created: %d\n", result.AtomsCreated)
	fmt.Printf("Refined: %d\n", result.Refined)
	fmt.Printf("Reconciled: %d\n", result.Reconciled)
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("dimensions")),
		// Dummy completion values, not needed for embedding
		ai.WithCompletionHost(c.String("embedding-host")),
		ai.WithCompletionModel("dummy"),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := enrich.NewDatabase(c.String("db"), enrich.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	config := &embedding.Config{
		BatchSize:      c.Int("batch-size"),
		TimeLimit:      c.Duration("time-limit"),
		SubBatchSize:   c.Int("sub-batch-size"),
		Concurrency:    c.Int("concurrency"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Reset:          c.Bool("reset"),
		ReportInterval: c.Int("report-interval"),
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	orchestrator, err := db.NewEmbeddingOrchestrator(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	result, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("embedding run failed: %w", err)
	}

	fmt.Printf("Processed: %d\n", result.Processed)
	fmt.Printf("Errored: %d\n", result.Errored)
	fmt.Printf("Chunks embedded: %d\n", result.ChunksEmbedded)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		// Dummy completion values, not needed for search
		ai.WithCompletionHost(c.String("embedding-host")),
		ai.WithCompletionModel("dummy"),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := enrich.NewDatabase(c.String("db"), enrich.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindSimilar(ctx, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d/%d)[%0.3f]\n", i, hit.Chunk.Text, hit.Chunk.DocumentId, hit.Chunk.Index, hit.Score)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := enrich.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs := sampleDocuments
	if src := c.String("src"); src != "" {
		docs, err = documentsFromFile(src)
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	added, err := db.DocumentRepository().AddDocuments(ctx, docs...)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	fmt.Printf("Seeded %d documents\n", len(added))
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := enrich.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs, err := db.DocumentRepository().GetAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	levels := map[core.PassLevel]int{}
	needsEmbedding := 0
	for _, doc := range docs {
		levels[doc.PassLevel]++
		if doc.NeedsEmbedding() {
			needsEmbedding++
		}
	}

	fmt.Printf("Documents: %d\n", len(docs))
	for level := core.LevelUnindexed; level <= core.LevelRelated; level++ {
		fmt.Printf("  %s: %d\n", level, levels[level])
	}
	fmt.Printf("Needing embedding: %d\n", needsEmbedding)

	for _, kind := range []string{core.RunKindPasses, core.RunKindEmbedding} {
		rec, err := db.MetaRepository().LastRunRecord(ctx, kind)
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("Last %s run: never\n", kind)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s run record: %w", kind, err)
		}
		fmt.Printf("Last %s run: %s (processed %d, skipped %d, errored %d)\n",
			kind, rec.FinishedAt.Format(time.RFC3339), rec.Processed, rec.Skipped, rec.Errored)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
