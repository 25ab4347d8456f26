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


// Package ai provides abstractions for the AI services used by the
// enrichment pipeline.
//
// This package defines interfaces for text completions and embeddings. It
// follows the dependency inversion principle, allowing the enrichment core
// to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - LanguageModel: Generates completions from a system/user prompt pair
//   - Provider: Aggregates AI services for convenient initialization
//
// The LanguageModel interface deliberately returns raw text: the pass
// executors own prompt construction and defensive parsing of model output,
// so a transport implementation never interprets a response.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
package ai
