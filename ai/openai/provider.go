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


package openai

import (
	"context"
	"log/slog"

	"github.com/halcyondata/enrich/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages embedder and language model instances.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	model    *LanguageModel
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create embedder (using internal constructor for concrete type)
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	// Create language model (using internal constructor for concrete type)
	model, err := newLanguageModel(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// LanguageModel returns the text completion service.
func (p *Provider) LanguageModel() ai.LanguageModel {
	return p.model
}

// Ping verifies both services respond. It issues a tiny embedding request and
// a one-token completion; either failing makes the whole provider unusable for
// an enrichment run.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.embedder.EmbedText(ctx, "ping"); err != nil {
		p.logger.Error("embedding service unreachable", "host", p.config.EmbeddingHost, "err", err)
		return err
	}
	if _, err := p.model.Complete(ctx, "Reply with the single word: ok", "ok?", 4); err != nil {
		p.logger.Error("completion service unreachable", "host", p.config.CompletionHost, "err", err)
		return err
	}
	return nil
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
