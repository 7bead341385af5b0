// Package rag is the retrieval side of the course pipeline.
//
// A Store embeds course content through an ai.Embedder, persists it in a
// storage.EmbeddingRepository and ranks it against questions by cosine
// similarity computed on the raw stored vectors. Rows can be updated in place,
// soft-deleted with Deactivate or removed with Delete.
//
// The embedding dimension is fixed per deployment. Either configure it with
// WithDimension or let the first stored vector decide; mismatched writes and
// queries fail with core.EmbeddingDimensionError.
//
// AssembleContext turns the best hits for a question into numbered text blocks
// for a generation prompt:
//
//	[1] Lesson: Goroutines (relevance 87%)
//	Goroutines are functions that run concurrently...
package rag
