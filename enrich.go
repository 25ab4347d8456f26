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


package enrich

import (
	"io"
	"log/slog"

	"github.com/halcyondata/enrich/ai"
	"github.com/halcyondata/enrich/ai/openai"
	"github.com/halcyondata/enrich/embedding"
	"github.com/halcyondata/enrich/pass"
	"github.com/halcyondata/enrich/search"
	"github.com/halcyondata/enrich/storage"
	"github.com/halcyondata/enrich/storage/badger"
)

// Database bundles the storage backend, its repositories, and the AI provider
// behind a single handle. It is the main entry point for embedding the
// enrichment pipeline in another program.
type Database struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	atomRepo  storage.AtomRepository
	chunkRepo storage.ChunkRepository
	metaRepo  storage.MetaRepository
	provider  ai.Provider
	aiConfig  *ai.Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the AI service configuration used to construct the
// provider. Ignored when WithProvider is also given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects an already-constructed AI provider instead of building
// one from the config. The Database takes ownership and closes it.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}
	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create atom repository
	atomRepo, err := badger.NewAtomRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		atomRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	metaRepo := badger.NewMetaRepository(backend)

	// Create AI provider with configured settings unless one was injected
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			atomRepo.Close()
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:   backend,
		docRepo:   docRepo,
		atomRepo:  atomRepo,
		chunkRepo: chunkRepo,
		metaRepo:  metaRepo,
		provider:  provider,
		aiConfig:  options.aiConfig,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.atomRepo.Close(); err != nil {
		db.logger.Error("error closing atom repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) AtomRepository() storage.AtomRepository {
	return db.atomRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) MetaRepository() storage.MetaRepository {
	return db.metaRepo
}

// NewScheduler creates a pass scheduler over this database. The meta
// repository is wired in so completed runs leave a run record; callers may
// still override it through opts.
func (db *Database) NewScheduler(opts ...pass.Option) (*pass.Scheduler, error) {
	all := append([]pass.Option{pass.WithMetaRepository(db.metaRepo)}, opts...)
	return pass.NewScheduler(db.docRepo, db.atomRepo, db.provider, all...)
}

// NewEmbeddingOrchestrator creates an embedding orchestrator over this
// database. When the config does not pin an expected dimensionality, the one
// from the AI config is used.
func (db *Database) NewEmbeddingOrchestrator(config *embedding.Config, progress io.Writer) (*embedding.Orchestrator, error) {
	if config == nil {
		config = embedding.DefaultConfig()
	}
	if config.ExpectedDimensions == 0 && db.aiConfig != nil {
		config.ExpectedDimensions = db.aiConfig.EmbeddingDimensions
	}
	return embedding.NewOrchestrator(db.docRepo, db.chunkRepo, db.metaRepo, db.provider.Embedder(), config, progress)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.chunkRepo, db.provider.Embedder(), opts...)
}
