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


// Package storage provides the storage abstraction layer for enrich.
//
// This package defines repository interfaces that decouple storage
// implementation from the enrichment pipeline. It allows different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: Operations for documents (the unit of enrichment)
//   - AtomRepository: Operations for extracted atoms, keyed by parent document
//   - ChunkRepository: Operations for embedding chunks, keyed by parent document
//   - MetaRepository: Run metadata (embedding dimensionality, run outcomes)
//
// # Update Semantics
//
// Document updates are read-modify-write of whole records: callers fetch a
// document, mutate only the fields they own, and write it back. The pipeline
// is the single writer for a document's enrichment fields within a run, so
// this is safe without cross-document locking; cross-document writes during
// reconciliation are last-writer-wins by contract.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
