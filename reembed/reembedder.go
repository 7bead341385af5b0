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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// Config controls a reembedding run.
type Config struct {
	// BatchSize is the number of embeddings sent to the embedder at once
	BatchSize int

	// ReportInterval is how often to report progress (number of rows)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// CourseID limits the run to one course. Empty means every course, which
	// is also the only mode allowed to change the vector dimension.
	CourseID string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Result summarizes a finished run.
type Result struct {
	Total     int
	Processed int
	Dimension int
	Resized   bool
	Elapsed   time.Duration
}

// Reembedder regenerates the vectors of stored embeddings.
type Reembedder struct {
	repo      storage.EmbeddingRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EmbeddingIterator
	logger    *slog.Logger
}

// NewReembedder creates a reembedder. A nil config uses DefaultConfig and a
// nil progress writer discards progress output.
func NewReembedder(repo storage.EmbeddingRepository, embedder ai.Embedder, config *Config, progress io.Writer, logger *slog.Logger) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reembedder")

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay, config.CourseID == "", logger),
		iterator:  NewEmbeddingIterator(repo, config.BatchSize, config.CourseID),
		logger:    logger,
	}, nil
}

// Run re-embeds every covered row. Batches already written stay written when
// a later batch fails; running again finishes the job.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	rows, err := r.iterator.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	result := &Result{Total: len(rows)}
	if len(rows) == 0 {
		fmt.Fprintf(r.progress, "No embeddings found (0 rows)\n")
		return result, nil
	}

	scope := "all courses"
	if r.config.CourseID != "" {
		scope = "course " + r.config.CourseID
	}
	fmt.Fprintf(r.progress, "Starting reembedding of %d rows for %s (batch size: %d)\n",
		len(rows), scope, r.iterator.batchSize)
	r.logger.Info("reembedding started", "rows", len(rows), "scope", scope)

	reporter := NewReporter(r.progress, len(rows), r.config.ReportInterval)
	reporter.Start()

	err = r.iterator.ForEach(ctx, rows, func(batch []*core.VectorEmbedding) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		result.Processed += len(batch)
		reporter.Add(len(batch))
		return nil
	})
	result.Resized = r.processor.Resized()
	result.Elapsed = reporter.Elapsed()
	if err != nil {
		r.logger.Error("reembedding stopped", "processed", result.Processed, "total", result.Total, "err", err)
		return result, err
	}

	reporter.Finish()
	if result.Dimension, err = r.repo.Dimension(ctx); err != nil {
		return result, err
	}

	elapsed := reporter.Elapsed()
	result.Elapsed = elapsed
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d rows in %v (%.1f rows/sec)\n",
		result.Processed, elapsed.Round(time.Millisecond), float64(result.Processed)/max(elapsed.Seconds(), 1e-9))
	r.logger.Info("reembedding complete", "rows", result.Processed, "dimension", result.Dimension, "resized", result.Resized)
	return result, nil
}
