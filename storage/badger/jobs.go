package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// maxConflictRetries bounds how often a write is replayed after badger
// reports a conflicting concurrent transaction.
const maxConflictRetries = 8

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (r *JobRepository) Close() error {
	return nil
}

// CreateJob stores a job and its request and claims the roadmap.
func (r *JobRepository) CreateJob(ctx context.Context, job *core.GenerationJob, req *core.GenerationRequest) (*core.GenerationJob, error) {
	if job.ID == "" || job.RoadmapID == "" {
		return nil, storage.ErrInvalidQuery
	}

	var existing *core.GenerationJob
	err := r.retryConflicts(func() error {
		existing = nil
		return r.backend.WithTx(func(tx *badger.Txn) error {
			claimKey := makeJobRoadmapKey(job.RoadmapID)
			holder, err := readClaim(tx, claimKey)
			if err != nil {
				return err
			}
			if holder != "" {
				active, err := readJob(tx, makeJobKey(holder))
				if err != nil {
					return err
				}
				if active != nil && !active.Status.IsTerminal() {
					existing = active
					return storage.ErrDuplicateKey
				}
			}

			key := makeJobKey(job.ID)
			if _, err := tx.Get(key); err == nil {
				return storage.ErrDuplicateKey
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			now := storedTime(time.Now())
			if job.CreatedAt.IsZero() {
				job.CreatedAt = now
			}
			job.UpdatedAt = now
			normalizeTimes(job)

			if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
				return err
			}
			if req != nil {
				if err := tx.Set(makeJobRequestKey(job.ID), storage.MarshalRequest(req)); err != nil {
					return err
				}
			}
			if err := tx.Set(claimKey, []byte(job.ID)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	})
	if err != nil {
		if existing != nil {
			return existing, err
		}
		return nil, err
	}
	return job, nil
}

// UpdateJob applies fn to the stored job and writes it back.
func (r *JobRepository) UpdateJob(ctx context.Context, id string, fn func(job *core.GenerationJob) error) (*core.GenerationJob, error) {
	var updated *core.GenerationJob
	err := r.retryConflicts(func() error {
		return r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeJobKey(id)
			job, err := readJob(tx, key)
			if err != nil {
				return err
			}
			if job == nil {
				return storage.ErrNotFound
			}

			if err := fn(job); err != nil {
				return err
			}
			job.UpdatedAt = storedTime(time.Now())
			normalizeTimes(job)

			if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
				return err
			}
			if job.Status.IsTerminal() {
				if err := releaseClaim(tx, job); err != nil {
					return err
				}
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			updated = job
			return nil
		}, true)
	})
	return updated, err
}

// GetJob retrieves a job by id.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*core.GenerationJob, error) {
	var result *core.GenerationJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, makeJobKey(id))
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

// GetRequest retrieves the request stored with a job.
func (r *JobRepository) GetRequest(ctx context.Context, id string) (*core.GenerationRequest, error) {
	var result *core.GenerationRequest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeJobRequestKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalRequest(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListJobsByStatus returns jobs in any of the given statuses ordered by creation time.
// With no statuses every job is returned.
func (r *JobRepository) ListJobsByStatus(ctx context.Context, statuses ...core.JobStatus) ([]*core.GenerationJob, error) {
	var results []*core.GenerationJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var job *core.GenerationJob
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(statuses) == 0 || slices.Contains(statuses, job.Status) {
				results = append(results, job)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.GenerationJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return results, nil
}

// FindActiveJobByRoadmap returns the non-terminal job holding a roadmap claim.
func (r *JobRepository) FindActiveJobByRoadmap(ctx context.Context, roadmapID string) (*core.GenerationJob, error) {
	var result *core.GenerationJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		holder, err := readClaim(tx, makeJobRoadmapKey(roadmapID))
		if err != nil {
			return err
		}
		if holder == "" {
			return storage.ErrNotFound
		}
		result, err = readJob(tx, makeJobKey(holder))
		if err != nil {
			return err
		}
		if result == nil || result.Status.IsTerminal() {
			result = nil
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// retryConflicts replays fn while badger reports a write conflict.
func (r *JobRepository) retryConflicts(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		r.backend.logger.Debug("retrying job transaction after conflict", "attempt", attempt+1)
	}
	return errors.Join(storage.ErrTransactionFailed, err)
}

// readJob reads a job from the transaction.
// Returns nil, nil if the key doesn't exist.
// storedTime is t at the precision the codec persists.
func storedTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func normalizeTimes(job *core.GenerationJob) {
	job.CreatedAt = storedTime(job.CreatedAt)
	job.StartedAt = storedTime(job.StartedAt)
	job.CompletedAt = storedTime(job.CompletedAt)
	job.UpdatedAt = storedTime(job.UpdatedAt)
	if job.FinalPayload != nil {
		job.FinalPayload.GeneratedAt = storedTime(job.FinalPayload.GeneratedAt)
	}
	for i := range job.ErrorLog {
		job.ErrorLog[i].Timestamp = storedTime(job.ErrorLog[i].Timestamp)
	}
}

func readJob(tx *badger.Txn, key []byte) (*core.GenerationJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var job *core.GenerationJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}

// readClaim returns the id of the job holding a roadmap, or "".
func readClaim(tx *badger.Txn, key []byte) (string, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// releaseClaim drops the roadmap claim if this job still holds it.
func releaseClaim(tx *badger.Txn, job *core.GenerationJob) error {
	claimKey := makeJobRoadmapKey(job.RoadmapID)
	holder, err := readClaim(tx, claimKey)
	if err != nil {
		return err
	}
	if holder != job.ID {
		return nil
	}
	return tx.Delete(claimKey)
}
