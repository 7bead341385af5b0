package rag

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrContentIDRequired is returned when Upsert is called without a content id.
	ErrContentIDRequired = errors.New("content id required for upsert")
)
