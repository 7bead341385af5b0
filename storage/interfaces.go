package storage

import (
	"context"

	"github.com/poiesic/syllabus/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// JobRepository persists generation jobs and the requests that created them.
type JobRepository interface {
	Repository

	// CreateJob stores a new job with its request and claims the job's roadmap.
	// If a non-terminal job already holds the roadmap, returns that job and ErrDuplicateKey.
	// The check and the claim happen in one transaction.
	CreateJob(ctx context.Context, job *core.GenerationJob, req *core.GenerationRequest) (*core.GenerationJob, error)

	// UpdateJob loads a job, applies fn and stores the result atomically.
	// If fn returns an error nothing is written and the error is returned.
	// When the job becomes terminal its roadmap claim is released.
	// Returns ErrNotFound if the job doesn't exist.
	UpdateJob(ctx context.Context, id string, fn func(job *core.GenerationJob) error) (*core.GenerationJob, error)

	// GetJob retrieves a job by id.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id string) (*core.GenerationJob, error)

	// GetRequest retrieves the request a job was created from.
	// Returns ErrNotFound if the job doesn't exist.
	GetRequest(ctx context.Context, id string) (*core.GenerationRequest, error)

	// ListJobsByStatus returns every job whose status is one of statuses,
	// ordered by creation time.
	ListJobsByStatus(ctx context.Context, statuses ...core.JobStatus) ([]*core.GenerationJob, error)

	// FindActiveJobByRoadmap returns the non-terminal job holding a roadmap.
	// Returns ErrNotFound if there is none.
	FindActiveJobByRoadmap(ctx context.Context, roadmapID string) (*core.GenerationJob, error)
}

// SimilarityQuery scopes a vector search.
type SimilarityQuery struct {
	CourseID    string
	ContentType core.ContentType // empty matches every type
	Vector      []float32
	Limit       int
}

// EmbeddingRepository persists content embeddings and serves similarity search.
type EmbeddingRepository interface {
	Repository

	// AddEmbeddings stores new embeddings.
	// IDs are generated from a sequence; CreatedAt and UpdatedAt are set.
	// Vectors must match the persisted dimension; the first write fixes it.
	AddEmbeddings(ctx context.Context, embeddings ...*core.VectorEmbedding) ([]*core.VectorEmbedding, error)

	// UpdateEmbeddings replaces existing embeddings in place, keeping their ids.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any embedding doesn't exist.
	UpdateEmbeddings(ctx context.Context, embeddings ...*core.VectorEmbedding) ([]*core.VectorEmbedding, error)

	// DeleteEmbeddings hard-deletes embeddings and their indices.
	// Returns ErrNotFound if any embedding doesn't exist.
	DeleteEmbeddings(ctx context.Context, ids ...core.ID) error

	// GetEmbedding retrieves a single embedding by id, active or not.
	// Returns ErrNotFound if the embedding doesn't exist.
	GetEmbedding(ctx context.Context, id core.ID) (*core.VectorEmbedding, error)

	// GetEmbeddingsByCourse retrieves every embedding of a course, active or not.
	GetEmbeddingsByCourse(ctx context.Context, courseID string) ([]*core.VectorEmbedding, error)

	// FindActiveByCourse retrieves the active embeddings of a course.
	FindActiveByCourse(ctx context.Context, courseID string) ([]*core.VectorEmbedding, error)

	// FindByContentID retrieves the embedding stored for a logical content reference.
	// Returns ErrNotFound if there is none.
	FindByContentID(ctx context.Context, courseID, contentID string) (*core.VectorEmbedding, error)

	// ListEmbeddings retrieves every stored embedding ordered by id.
	ListEmbeddings(ctx context.Context) ([]*core.VectorEmbedding, error)

	// FindSimilar scores the active embeddings of a course against a vector by
	// cosine similarity. Results are ordered by score descending, ties broken by
	// newer CreatedAt first, and truncated to the query limit.
	FindSimilar(ctx context.Context, query SimilarityQuery) ([]*core.SearchResult, error)

	// Dimension returns the persisted embedding dimension, or 0 if none is set.
	Dimension(ctx context.Context) (int, error)

	// SetDimension overwrites the persisted embedding dimension.
	// Used when every stored vector is being regenerated with a new model.
	SetDimension(ctx context.Context, dim int) error
}
