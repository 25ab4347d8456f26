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
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LanguageModel implements ai.LanguageModel using OpenAI-compatible chat APIs.
type LanguageModel struct {
	client llms.Model
	logger *slog.Logger
}

// newLanguageModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newLanguageModel(config *ai.Config) (*LanguageModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat completions
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken("none"),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &LanguageModel{
		client: client,
		logger: slog.Default().With("component", "openai-model"),
	}, nil
}

// NewLanguageModel creates a new completion client using the provided configuration.
//
// Returns ai.LanguageModel interface to enforce abstraction.
func NewLanguageModel(config *ai.Config) (ai.LanguageModel, error) {
	return newLanguageModel(config)
}

// Complete sends the prompt pair to the model and returns the raw completion
// text. Temperature is pinned to 0 so enrichment output is as repeatable as
// the model allows.
func (m *LanguageModel) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	response, err := m.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Debug("no choices returned from model")
		return "", nil
	}

	return response.Choices[0].Content, nil
}
