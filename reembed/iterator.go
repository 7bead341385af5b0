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

package reembed

import (
	"context"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// DefaultBatchSize is the default number of embeddings handled per batch.
const DefaultBatchSize = 100

// EmbeddingIterator walks stored embeddings in fixed-size batches.
// Inactive rows are included so they stay searchable once reactivated.
type EmbeddingIterator struct {
	repo      storage.EmbeddingRepository
	batchSize int
	courseID  string
}

// NewEmbeddingIterator creates an iterator over every embedding, or over one
// course's when courseID is set.
func NewEmbeddingIterator(repo storage.EmbeddingRepository, batchSize int, courseID string) *EmbeddingIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EmbeddingIterator{repo: repo, batchSize: batchSize, courseID: courseID}
}

// Load returns every embedding the iterator covers.
func (it *EmbeddingIterator) Load(ctx context.Context) ([]*core.VectorEmbedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.courseID != "" {
		return it.repo.GetEmbeddingsByCourse(ctx, it.courseID)
	}
	return it.repo.ListEmbeddings(ctx)
}

// ForEach calls fn with consecutive batches of rows. It stops at the first
// error returned by fn or when ctx ends.
func (it *EmbeddingIterator) ForEach(ctx context.Context, rows []*core.VectorEmbedding, fn func([]*core.VectorEmbedding) error) error {
	for start := 0; start < len(rows); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+it.batchSize, len(rows))
		if err := fn(rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
