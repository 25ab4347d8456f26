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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title and Content must not be empty
//   - PassLevel must be a defined level
//   - RelatedIds must not exceed RelatedIdsCap
//   - UpdatedAt must not be in the future
//
// NOT validated (populated by enrichment passes):
//   - Summary, EnrichedAt, EmbeddedAt, ChunkCount
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if !doc.PassLevel.Valid() {
		return fmt.Errorf("%w: %w: value %d", ErrInvalidDocument, ErrInvalidPassLevel, doc.PassLevel)
	}

	if len(doc.RelatedIds) > RelatedIdsCap {
		return fmt.Errorf("%w: %w: %d entries", ErrInvalidDocument, ErrTooManyRelated, len(doc.RelatedIds))
	}

	if !doc.UpdatedAt.IsZero() && !IsValidTimestamp(doc.UpdatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateAtom validates an Atom according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - DocumentId must be set
func ValidateAtom(atom *Atom) error {
	if atom == nil {
		return fmt.Errorf("%w: atom is nil", ErrInvalidAtom)
	}

	if atom.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAtom, ErrEmptyContent)
	}

	if atom.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidAtom, ErrMissingDocumentId)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - DocumentId must be set
//   - Index must not be negative
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingDocumentId)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
