package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	idSeq, err := backend.GetSequence(embeddingIDSeq)
	if err != nil {
		return nil, err
	}

	return &EmbeddingRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EmbeddingRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, query storage.SimilarityQuery) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, query)
}

// Dimension delegates to the backend.
func (r *EmbeddingRepository) Dimension(ctx context.Context) (int, error) {
	return r.backend.Dimension(ctx)
}

// SetDimension delegates to the backend.
func (r *EmbeddingRepository) SetDimension(ctx context.Context, dim int) error {
	return r.backend.SetDimension(ctx, dim)
}

// AddEmbeddings adds one or more embeddings to storage.
func (r *EmbeddingRepository) AddEmbeddings(ctx context.Context, embeddings ...*core.VectorEmbedding) ([]*core.VectorEmbedding, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}

		for _, embedding := range embeddings {
			if dim == 0 {
				dim = len(embedding.Vector)
				if err := writeDimension(tx, dim); err != nil {
					return err
				}
			} else if len(embedding.Vector) != dim {
				return &core.EmbeddingDimensionError{Expected: dim, Actual: len(embedding.Vector)}
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			embedding.ID = core.ID(nextID)

			embedding.CreatedAt = storedTime(time.Now())
			embedding.UpdatedAt = embedding.CreatedAt

			if err := tx.Set(makeEmbeddingKey(embedding.ID), storage.MarshalEmbedding(embedding)); err != nil {
				return err
			}
			if err := setIndices(tx, embedding); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return embeddings, err
}

// UpdateEmbeddings updates existing embeddings.
func (r *EmbeddingRepository) UpdateEmbeddings(ctx context.Context, embeddings ...*core.VectorEmbedding) ([]*core.VectorEmbedding, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}

		for _, embedding := range embeddings {
			key := makeEmbeddingKey(embedding.ID)

			old, err := readEmbedding(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			if dim != 0 && len(embedding.Vector) != dim {
				return &core.EmbeddingDimensionError{Expected: dim, Actual: len(embedding.Vector)}
			}

			embedding.CreatedAt = old.CreatedAt
			embedding.UpdatedAt = storedTime(time.Now())

			if err := tx.Set(key, storage.MarshalEmbedding(embedding)); err != nil {
				return err
			}

			// Re-point indices if the course or content reference moved
			if old.CourseID != embedding.CourseID || old.ContentID != embedding.ContentID {
				if err := deleteIndices(tx, old); err != nil {
					return err
				}
				if err := setIndices(tx, embedding); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return embeddings, err
}

// DeleteEmbeddings removes embeddings by their IDs.
func (r *EmbeddingRepository) DeleteEmbeddings(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEmbeddingKey(id)

			embedding, err := readEmbedding(tx, key)
			if err != nil {
				return err
			}
			if embedding == nil {
				return storage.ErrNotFound
			}
			if err := deleteIndices(tx, embedding); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves a single embedding by ID.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, id core.ID) (*core.VectorEmbedding, error) {
	var result *core.VectorEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEmbedding(tx, makeEmbeddingKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEmbeddingsByCourse retrieves every embedding of a course.
func (r *EmbeddingRepository) GetEmbeddingsByCourse(ctx context.Context, courseID string) ([]*core.VectorEmbedding, error) {
	var results []*core.VectorEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return iterateCourse(tx, courseID, func(embedding *core.VectorEmbedding) error {
			results = append(results, embedding)
			return nil
		})
	}, false)
	return results, err
}

// FindActiveByCourse retrieves the active embeddings of a course.
func (r *EmbeddingRepository) FindActiveByCourse(ctx context.Context, courseID string) ([]*core.VectorEmbedding, error) {
	var results []*core.VectorEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return iterateCourse(tx, courseID, func(embedding *core.VectorEmbedding) error {
			if embedding.IsActive {
				results = append(results, embedding)
			}
			return nil
		})
	}, false)
	return results, err
}

// FindByContentID retrieves the embedding stored for a content reference.
func (r *EmbeddingRepository) FindByContentID(ctx context.Context, courseID, contentID string) (*core.VectorEmbedding, error) {
	var result *core.VectorEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeContentKey(courseID, contentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		var id core.ID
		err = item.Value(func(val []byte) error {
			var unmarshalErr error
			id, unmarshalErr = storage.UnmarshalID(val)
			return unmarshalErr
		})
		if err != nil {
			return err
		}
		result, err = readEmbedding(tx, makeEmbeddingKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListEmbeddings retrieves every stored embedding in id order.
func (r *EmbeddingRepository) ListEmbeddings(ctx context.Context) ([]*core.VectorEmbedding, error) {
	var results []*core.VectorEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var embedding *core.VectorEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				embedding, err = storage.UnmarshalEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, embedding)
		}
		return nil
	}, false)
	return results, err
}

// setIndices adds course and content index entries for an embedding.
func setIndices(tx *badger.Txn, embedding *core.VectorEmbedding) error {
	value := storage.MarshalID(embedding.ID)
	if err := tx.Set(makeCourseKey(embedding.CourseID, embedding.ID), value); err != nil {
		return err
	}
	if embedding.ContentID == "" {
		return nil
	}
	return tx.Set(makeContentKey(embedding.CourseID, embedding.ContentID), value)
}

// deleteIndices removes the index entries of an embedding.
// The content entry is only removed if it still points at this embedding.
func deleteIndices(tx *badger.Txn, embedding *core.VectorEmbedding) error {
	if err := tx.Delete(makeCourseKey(embedding.CourseID, embedding.ID)); err != nil {
		return err
	}
	if embedding.ContentID == "" {
		return nil
	}
	contentKey := makeContentKey(embedding.CourseID, embedding.ContentID)
	item, err := tx.Get(contentKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		id, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	if err != nil {
		return err
	}
	if id != embedding.ID {
		return nil
	}
	return tx.Delete(contentKey)
}
