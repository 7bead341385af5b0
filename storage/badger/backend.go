package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

const (
	defaultSequenceBandwidth = 100
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// Dimension returns the persisted embedding dimension, or 0 if unset.
func (b *Backend) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := b.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)
	return dim, err
}

// SetDimension overwrites the persisted embedding dimension.
func (b *Backend) SetDimension(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidQuery)
	}
	return b.WithTx(func(tx *badger.Txn) error {
		if err := writeDimension(tx, dim); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilar scores the active embeddings of one course against a vector.
// Embeddings whose vector length differs from the query are skipped.
func (b *Backend) FindSimilar(ctx context.Context, query storage.SimilarityQuery) ([]*core.SearchResult, error) {
	if query.CourseID == "" || query.Limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult
	skipped := 0

	err := b.WithTx(func(tx *badger.Txn) error {
		return iterateCourse(tx, query.CourseID, func(embedding *core.VectorEmbedding) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !embedding.IsActive {
				return nil
			}
			if query.ContentType != "" && embedding.ContentType != query.ContentType {
				return nil
			}
			if len(embedding.Vector) != len(query.Vector) {
				skipped++
				return nil
			}
			results = append(results, &core.SearchResult{
				Embedding: embedding,
				Score:     core.CosineSimilarity(query.Vector, embedding.Vector),
			})
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		b.logger.Warn("skipped embeddings with mismatched dimension",
			"course_id", query.CourseID,
			"expected", len(query.Vector),
			"skipped", skipped)
	}

	slices.SortFunc(results, core.CompareResults)

	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	return results, nil
}

// iterateCourse walks the course index and calls fn with each embedding.
func iterateCourse(tx *badger.Txn, courseID string, fn func(*core.VectorEmbedding) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialCourseKey(courseID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		embedding, err := readEmbedding(tx, makeEmbeddingKey(id))
		if err != nil {
			return err
		}
		// Index entry without a record; skip it
		if embedding == nil || embedding.CourseID != courseID {
			continue
		}
		if err := fn(embedding); err != nil {
			return err
		}
	}
	return nil
}

// readEmbedding reads an embedding from the transaction.
// Returns nil, nil if the key doesn't exist.
func readEmbedding(tx *badger.Txn, key []byte) (*core.VectorEmbedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var embedding *core.VectorEmbedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		embedding, unmarshalErr = storage.UnmarshalEmbedding(val)
		return unmarshalErr
	})
	return embedding, err
}

func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(metaDimensionKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return storage.ErrSerializationFailed
		}
		dim = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return dim, err
}

func writeDimension(tx *badger.Txn, dim int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return tx.Set([]byte(metaDimensionKey), buf)
}
