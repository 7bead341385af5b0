// Copyright 2025 Poiesic Systems
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

// Package storage provides the storage abstraction layer for syllabus.
//
// This package defines repository interfaces that decouple storage implementation
// from the job pipeline and the vector store. The badger subpackage is the only
// backend; tests use its in-memory mode.
//
// # Architecture
//
//   - Repository: transaction support shared by every repository
//   - JobRepository: generation jobs, their requests and the per-roadmap claim
//     that keeps at most one non-terminal job per roadmap
//   - EmbeddingRepository: content embeddings, course and content indices,
//     cosine similarity search and the persisted embedding dimension
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	jobs := badger.NewJobRepository(backend)
//
// Use in tests with in-memory storage:
//
//	jobRepo, embRepo, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Long scans check it
// between records.
package storage
