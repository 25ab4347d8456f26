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


package badger

import "github.com/halcyondata/enrich/storage"

// MemoryRepositories bundles the in-memory repositories used by tests.
type MemoryRepositories struct {
	Documents storage.DocumentRepository
	Atoms     storage.AtomRepository
	Chunks    storage.ChunkRepository
	Meta      storage.MetaRepository
	Backend   *Backend
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the document repository and backend when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	atomRepo, err := NewAtomRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	chunkRepo, err := NewChunkRepository(backend)
	if err != nil {
		atomRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Documents: docRepo,
		Atoms:     atomRepo,
		Chunks:    chunkRepo,
		Meta:      NewMetaRepository(backend),
		Backend:   backend,
	}, nil
}

// Close releases every repository and the backing database.
func (m *MemoryRepositories) Close() {
	m.Chunks.Close()
	m.Atoms.Close()
	m.Documents.Close()
	m.Backend.Close()
}
