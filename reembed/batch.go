package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// BatchProcessor embeds one batch of rows and writes the new vectors back.
type BatchProcessor struct {
	repo           storage.EmbeddingRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	allowResize    bool
	logger         *slog.Logger

	mu      sync.Mutex
	resized bool
}

// NewBatchProcessor creates a processor. With allowResize the persisted
// dimension is switched to the embedder's on the first batch; otherwise a
// differing dimension fails the batch.
func NewBatchProcessor(repo storage.EmbeddingRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration, allowResize bool, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		allowResize:    allowResize,
		logger:         logger,
	}
}

// Process re-embeds rows and updates them in place.
func (bp *BatchProcessor) Process(ctx context.Context, rows []*core.VectorEmbedding) error {
	if len(rows) == 0 {
		return nil
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.ContentText
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}
	if len(vectors) != len(rows) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(rows), len(vectors))
	}

	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return &core.EmbeddingDimensionError{Expected: dim, Actual: len(v)}
		}
	}
	if err := bp.ensureDimension(ctx, dim); err != nil {
		return err
	}

	updated := make([]*core.VectorEmbedding, len(rows))
	for i, row := range rows {
		c := *row
		c.Vector = vectors[i]
		updated[i] = &c
	}
	if _, err := bp.repo.UpdateEmbeddings(ctx, updated...); err != nil {
		return fmt.Errorf("failed to update embeddings: %w", err)
	}
	return nil
}

// Resized reports whether the processor changed the persisted dimension.
func (bp *BatchProcessor) Resized() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.resized
}

func (bp *BatchProcessor) ensureDimension(ctx context.Context, dim int) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	current, err := bp.repo.Dimension(ctx)
	if err != nil {
		return err
	}
	if current == dim {
		return nil
	}
	if current != 0 && !bp.allowResize {
		return &core.EmbeddingDimensionError{Expected: current, Actual: dim}
	}
	if err := bp.repo.SetDimension(ctx, dim); err != nil {
		return err
	}
	bp.resized = true
	bp.logger.Warn("embedding dimension changed", "from", current, "to", dim)
	return nil
}
