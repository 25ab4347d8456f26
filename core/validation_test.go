package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:        1,
				Title:     "Notes",
				Content:   "Hello world",
				UpdatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid document with related ids",
			doc: &Document{
				Id:         1,
				Title:      "Notes",
				Content:    "Hello world",
				UpdatedAt:  validTime,
				PassLevel:  LevelRelated,
				RelatedIds: []ID{2, 3, 4},
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &Document{
				Content:   "Hello",
				UpdatedAt: validTime,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "empty content",
			doc: &Document{
				Title:     "Notes",
				UpdatedAt: validTime,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "invalid pass level",
			doc: &Document{
				Title:     "Notes",
				Content:   "Hello",
				UpdatedAt: validTime,
				PassLevel: PassLevel(9),
			},
			wantErr: ErrInvalidPassLevel,
		},
		{
			name: "future timestamp",
			doc: &Document{
				Title:     "Notes",
				Content:   "Hello",
				UpdatedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name: "too many related ids",
			doc: &Document{
				Title:      "Notes",
				Content:    "Hello",
				UpdatedAt:  validTime,
				RelatedIds: make([]ID, RelatedIdsCap+1),
			},
			wantErr: ErrTooManyRelated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAtom(t *testing.T) {
	tests := []struct {
		name    string
		atom    *Atom
		wantErr error
	}{
		{
			name: "valid atom",
			atom: &Atom{
				Id:         AtomID(1, "fact"),
				DocumentId: 1,
				Content:    "fact",
			},
			wantErr: nil,
		},
		{
			name:    "nil atom",
			atom:    nil,
			wantErr: ErrInvalidAtom,
		},
		{
			name: "empty content",
			atom: &Atom{
				DocumentId: 1,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "missing document id",
			atom: &Atom{
				Content: "fact",
			},
			wantErr: ErrMissingDocumentId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAtom(tt.atom)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAtom() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAtom() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name: "valid chunk",
			chunk: &Chunk{
				DocumentId: 1,
				Index:      0,
				Text:       "segment",
			},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name: "empty text",
			chunk: &Chunk{
				DocumentId: 1,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "missing document id",
			chunk: &Chunk{
				Text: "segment",
			},
			wantErr: ErrMissingDocumentId,
		},
		{
			name: "negative index",
			chunk: &Chunk{
				DocumentId: 1,
				Index:      -1,
				Text:       "segment",
			},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
