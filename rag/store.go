package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// StoreRequest describes a piece of course content to embed and persist.
type StoreRequest struct {
	CourseID    string            `json:"courseId" validate:"required,max=128"`
	ContentID   string            `json:"contentId,omitempty" validate:"max=256"`
	ContentType core.ContentType  `json:"contentType" validate:"required,contenttype"`
	ContentText string            `json:"contentText" validate:"required"`
	Title       string            `json:"title,omitempty" validate:"max=200"`
	Description string            `json:"description,omitempty" validate:"max=2000"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Store embeds course content and serves similarity search over it.
// Writes to the same row are serialized; writes to different rows run in parallel.
type Store struct {
	repo      storage.EmbeddingRepository
	embedder  ai.Embedder
	dimension int
	monitor   SearchMonitor
	locks     *keyedMutex
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithDimension fixes the embedding dimension of the deployment.
// Default is 0, which adopts the dimension of the first stored vector.
func WithDimension(dim int) Option {
	return func(s *Store) error {
		if dim < 0 {
			return fmt.Errorf("dimension must not be negative, got %d", dim)
		}
		s.dimension = dim
		return nil
	}
}

// WithMonitor installs a monitor that observes every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Store) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewStore creates a vector store.
// If a dimension is configured it must agree with the one already persisted.
func NewStore(ctx context.Context, repo storage.EmbeddingRepository, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		repo:     repo,
		embedder: embedder,
		monitor:  &noopMonitor{},
		locks:    newKeyedMutex(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "rag-store")

	if s.dimension > 0 {
		persisted, err := repo.Dimension(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case persisted == 0:
			if err := repo.SetDimension(ctx, s.dimension); err != nil {
				return nil, err
			}
		case persisted != s.dimension:
			return nil, &core.EmbeddingDimensionError{Expected: persisted, Actual: s.dimension}
		}
	}

	return s, nil
}

// Store embeds the request text and persists it as a new active row.
func (s *Store) Store(ctx context.Context, req StoreRequest) (*core.VectorEmbedding, error) {
	if err := core.ValidateStruct(&req); err != nil {
		return nil, err
	}

	embedding := &core.VectorEmbedding{
		CourseID:    req.CourseID,
		ContentID:   req.ContentID,
		ContentType: req.ContentType,
		ContentText: req.ContentText,
		ContentHash: core.IDFromContent(req.ContentText),
		Title:       req.Title,
		Description: req.Description,
		Metadata:    maps.Clone(req.Metadata),
		IsActive:    true,
	}
	if err := core.ValidateEmbedding(embedding); err != nil {
		return nil, err
	}

	vector, err := s.embed(ctx, req.ContentText)
	if err != nil {
		return nil, err
	}
	embedding.Vector = vector

	if _, err := s.repo.AddEmbeddings(ctx, embedding); err != nil {
		s.logger.Error("failed to store embedding", "course_id", req.CourseID, "err", err)
		return nil, err
	}

	s.logger.Debug("stored embedding", "id", embedding.ID, "course_id", req.CourseID, "type", req.ContentType)
	return embedding, nil
}

// Upsert stores content under its (course, content id) reference.
// If the stored row already holds the same text it is returned untouched;
// otherwise the row is re-embedded in place and reactivated.
func (s *Store) Upsert(ctx context.Context, req StoreRequest) (*core.VectorEmbedding, error) {
	if req.ContentID == "" {
		return nil, ErrContentIDRequired
	}
	if err := core.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := core.ValidateEmbedding(&core.VectorEmbedding{
		CourseID:    req.CourseID,
		ContentType: req.ContentType,
		ContentText: req.ContentText,
	}); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("content:" + req.CourseID + "\x00" + req.ContentID)
	defer unlock()

	found, err := s.repo.FindByContentID(ctx, req.CourseID, req.ContentID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.Store(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	// the row lock orders this write with Update, Deactivate and Delete
	unlockRow := s.locks.Lock(rowKey(found.ID))
	defer unlockRow()

	existing, err := s.repo.GetEmbedding(ctx, found.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.Store(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	hash := core.IDFromContent(req.ContentText)
	if existing.ContentHash == hash && existing.IsActive &&
		existing.ContentType == req.ContentType && existing.Title == req.Title {
		s.logger.Debug("content unchanged, skipping embedding", "id", existing.ID)
		return existing, nil
	}

	vector := existing.Vector
	if existing.ContentHash != hash {
		vector, err = s.embed(ctx, req.ContentText)
		if err != nil {
			return nil, err
		}
	}

	existing.ContentType = req.ContentType
	existing.ContentText = req.ContentText
	existing.ContentHash = hash
	existing.Vector = vector
	existing.Title = req.Title
	existing.Description = req.Description
	existing.Metadata = maps.Clone(req.Metadata)
	existing.IsActive = true

	if _, err := s.repo.UpdateEmbeddings(ctx, existing); err != nil {
		return nil, translateNotFound(err, existing.ID)
	}
	return existing, nil
}

// Update replaces the text of a row and recomputes its vector. The id is kept.
func (s *Store) Update(ctx context.Context, id core.ID, newText string) (*core.VectorEmbedding, error) {
	if newText == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidRequest, core.ErrEmptyContent)
	}

	unlock := s.locks.Lock(rowKey(id))
	defer unlock()

	embedding, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	embedding.ContentText = newText
	embedding.ContentHash = core.IDFromContent(newText)
	if err := core.ValidateEmbedding(embedding); err != nil {
		return nil, err
	}

	embedding.Vector, err = s.embed(ctx, newText)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.UpdateEmbeddings(ctx, embedding); err != nil {
		return nil, translateNotFound(err, id)
	}
	return embedding, nil
}

// Deactivate soft-deletes a row. It stays readable but is excluded from search.
func (s *Store) Deactivate(ctx context.Context, id core.ID) error {
	unlock := s.locks.Lock(rowKey(id))
	defer unlock()

	embedding, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !embedding.IsActive {
		return nil
	}
	embedding.IsActive = false
	_, err = s.repo.UpdateEmbeddings(ctx, embedding)
	return translateNotFound(err, id)
}

// Delete hard-deletes a row.
func (s *Store) Delete(ctx context.Context, id core.ID) error {
	unlock := s.locks.Lock(rowKey(id))
	defer unlock()

	return translateNotFound(s.repo.DeleteEmbeddings(ctx, id), id)
}

// DeleteCourse hard-deletes every row of a course and returns how many were removed.
func (s *Store) DeleteCourse(ctx context.Context, courseID string) (int, error) {
	rows, err := s.repo.GetEmbeddingsByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]core.ID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	if err := s.repo.DeleteEmbeddings(ctx, ids...); err != nil {
		return 0, err
	}
	s.logger.Info("deleted course embeddings", "course_id", courseID, "count", len(ids))
	return len(ids), nil
}

// List returns the rows of a course. Deactivated rows are included only when
// includeInactive is set.
func (s *Store) List(ctx context.Context, courseID string, includeInactive bool) ([]*core.VectorEmbedding, error) {
	if courseID == "" {
		return nil, fmt.Errorf("%w: course id is required", core.ErrInvalidRequest)
	}
	if includeInactive {
		return s.repo.GetEmbeddingsByCourse(ctx, courseID)
	}
	return s.repo.FindActiveByCourse(ctx, courseID)
}

// Get returns a row by id, active or not.
func (s *Store) Get(ctx context.Context, id core.ID) (*core.VectorEmbedding, error) {
	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id core.ID) (*core.VectorEmbedding, error) {
	embedding, err := s.repo.GetEmbedding(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, id)
	}
	return embedding, nil
}

// embed computes a vector and checks it against the configured dimension.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding", "err", err)
		return nil, err
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return nil, &core.EmbeddingDimensionError{Expected: s.dimension, Actual: len(vector)}
	}
	return vector, nil
}

func rowKey(id core.ID) string {
	return "row:" + strconv.FormatUint(uint64(id), 10)
}

// translateNotFound maps storage.ErrNotFound onto core.ErrNotFound.
func translateNotFound(err error, id core.ID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: embedding %d", core.ErrNotFound, id)
	}
	return err
}
