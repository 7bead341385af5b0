package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage"
)

// DefaultMaxRetries is the retry budget of a job unless configured otherwise.
const DefaultMaxRetries = 3

// StepQueued is the step label of a job that has not been claimed yet.
const StepQueued = "queued"

// errUnchanged aborts an update without writing anything.
var errUnchanged = errors.New("unchanged")

// Publisher receives an event every time a job changes.
type Publisher interface {
	Publish(sessionID string, event core.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, core.Event) {}

// Position locates the pipeline within a course.
type Position struct {
	Section  int
	Subtopic int
}

// Tracker is the persistent state machine of generation jobs.
//
//	pending -> processing -> completed | failed | cancelled
//
// Terminal states are final. Completing, failing or cancelling a job that is
// already terminal is a no-op.
type Tracker struct {
	repo       storage.JobRepository
	publisher  Publisher
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// WithPublisher sets where job events are sent.
// Default discards events.
func WithPublisher(p Publisher) Option {
	return func(t *Tracker) error {
		if p == nil {
			p = nopPublisher{}
		}
		t.publisher = p
		return nil
	}
}

// WithMaxRetries sets the retry budget of new jobs.
// Default is DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(t *Tracker) error {
		if n < 0 {
			return fmt.Errorf("max retries must not be negative, got %d", n)
		}
		t.maxRetries = n
		return nil
	}
}

// WithClock replaces time.Now. Used by tests to control time estimates.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		t.now = now
		return nil
	}
}

// NewTracker creates a Tracker over a job repository.
func NewTracker(repo storage.JobRepository, opts ...Option) (*Tracker, error) {
	if repo == nil {
		return nil, errors.New("job repository is required")
	}
	t := &Tracker{
		repo:       repo,
		publisher:  nopPublisher{},
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	t.logger = t.logger.With("component", "progress")
	return t, nil
}

// MaxRetries returns the retry budget given to new jobs.
func (t *Tracker) MaxRetries() int {
	return t.maxRetries
}

// Create registers a pending job for a request.
// If the roadmap already has a non-terminal job, returns a *core.DuplicateJobError
// naming it and creates nothing.
func (t *Tracker) Create(ctx context.Context, req *core.GenerationRequest) (*core.GenerationJob, error) {
	if err := core.ValidateGenerationRequest(req); err != nil {
		return nil, err
	}

	job := &core.GenerationJob{
		ID:             uuid.NewString(),
		CourseID:       req.CourseID,
		RoadmapID:      req.RoadmapID,
		SessionID:      req.SessionID,
		Status:         core.JobStatusPending,
		CurrentStep:    StepQueued,
		TotalSections:  len(req.Sections),
		TotalSubtopics: req.TotalSubtopics(),
		MaxRetries:     t.maxRetries,
		CreatedAt:      t.timestamp(),
	}

	existing, err := t.repo.CreateJob(ctx, job, req)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) && existing != nil {
			return nil, &core.DuplicateJobError{RoadmapID: req.RoadmapID, ExistingJobID: existing.ID}
		}
		return nil, err
	}

	t.logger.Info("job created", "job", job.ID, "course", job.CourseID, "roadmap", job.RoadmapID,
		"sections", job.TotalSections, "subtopics", job.TotalSubtopics)
	t.publish(core.EventProgress, job)
	return job.Clone(), nil
}

// ActiveForRoadmap returns the pending or processing job holding a roadmap.
func (t *Tracker) ActiveForRoadmap(ctx context.Context, roadmapID string) (*core.GenerationJob, error) {
	job, err := t.repo.FindActiveJobByRoadmap(ctx, roadmapID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active job for roadmap %s", core.ErrNotFound, roadmapID)
		}
		return nil, err
	}
	return job, nil
}

// Start claims a pending job for a worker.
func (t *Tracker) Start(ctx context.Context, jobID string) (*core.GenerationJob, error) {
	job, err := t.update(ctx, jobID, func(job *core.GenerationJob) error {
		if job.Status.IsTerminal() {
			return &core.TerminalJobError{JobID: job.ID, Status: job.Status}
		}
		if job.Status != core.JobStatusPending {
			return fmt.Errorf("%w: job %s is already %s", core.ErrInvalidTransition, job.ID, job.Status)
		}
		job.Status = core.JobStatusProcessing
		job.StartedAt = t.timestamp()
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("job started", "job", jobID)
	t.publish(core.EventProgress, job)
	return job, nil
}

// Advance records that the pipeline reached a step. The percentage may not go
// down and the job must be processing. A nil position leaves the current
// section and subtopic unchanged.
func (t *Tracker) Advance(ctx context.Context, jobID, step string, percentage int, pos *Position) (*core.GenerationJob, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("%w: percentage %d out of range", core.ErrInvalidRequest, percentage)
	}

	job, err := t.update(ctx, jobID, func(job *core.GenerationJob) error {
		if job.Status.IsTerminal() {
			return &core.TerminalJobError{JobID: job.ID, Status: job.Status}
		}
		if job.Status != core.JobStatusProcessing {
			return fmt.Errorf("%w: job %s is %s", core.ErrInvalidTransition, job.ID, job.Status)
		}
		if percentage < job.ProgressPercentage {
			return fmt.Errorf("%w: %d -> %d", core.ErrPercentageRegression, job.ProgressPercentage, percentage)
		}
		job.CurrentStep = step
		job.ProgressPercentage = percentage
		if pos != nil {
			job.CurrentSectionIndex = pos.Section
			job.CurrentSubtopicIndex = pos.Subtopic
		}
		job.EstimatedMinutesRemaining = t.estimateMinutes(job)
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Debug("job advanced", "job", jobID, "step", step, "percentage", percentage)
	t.publish(core.EventProgress, job)
	return job, nil
}

// RecordError appends a failure to the job's error log. While the retry budget
// lasts the retry count is incremented; once it is spent the job is failed.
// Callers inspect the returned job's status to decide whether to retry.
func (t *Tracker) RecordError(ctx context.Context, jobID, step, message string) (*core.GenerationJob, error) {
	job, err := t.update(ctx, jobID, func(job *core.GenerationJob) error {
		if job.Status.IsTerminal() {
			return &core.TerminalJobError{JobID: job.ID, Status: job.Status}
		}
		job.ErrorLog = append(job.ErrorLog, core.ErrorEntry{
			Step:      step,
			Error:     message,
			Timestamp: t.timestamp(),
		})
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			return nil
		}
		job.Status = core.JobStatusFailed
		job.CompletedAt = t.timestamp()
		job.EstimatedMinutesRemaining = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if job.Status == core.JobStatusFailed {
		t.logger.Error("job failed after exhausting retries", "job", jobID, "step", step,
			"retries", job.RetryCount, "err", message)
		t.publish(core.EventFailed, job)
		return job, nil
	}

	t.logger.Warn("step failed", "job", jobID, "step", step, "retry", job.RetryCount,
		"max_retries", job.MaxRetries, "err", message)
	t.publish(core.EventError, job)
	return job, nil
}

// Complete finishes a processing job with its final payload.
func (t *Tracker) Complete(ctx context.Context, jobID string, payload *core.CourseStructure) (*core.GenerationJob, error) {
	return t.finish(ctx, jobID, core.JobStatusCompleted, func(job *core.GenerationJob) error {
		if job.Status != core.JobStatusProcessing {
			return fmt.Errorf("%w: cannot complete %s job", core.ErrInvalidTransition, job.Status)
		}
		job.ProgressPercentage = 100
		job.FinalPayload = payload.Clone()
		return nil
	})
}

// Fail finishes a job as failed, logging reason.
func (t *Tracker) Fail(ctx context.Context, jobID, reason string) (*core.GenerationJob, error) {
	return t.finish(ctx, jobID, core.JobStatusFailed, func(job *core.GenerationJob) error {
		job.ErrorLog = append(job.ErrorLog, core.ErrorEntry{
			Step:      job.CurrentStep,
			Error:     reason,
			Timestamp: t.timestamp(),
		})
		return nil
	})
}

// Cancel finishes a job as cancelled.
func (t *Tracker) Cancel(ctx context.Context, jobID string) (*core.GenerationJob, error) {
	return t.finish(ctx, jobID, core.JobStatusCancelled, nil)
}

// Snapshot returns the current state of a job.
func (t *Tracker) Snapshot(ctx context.Context, jobID string) (*core.GenerationJob, error) {
	job, err := t.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, translate(err, jobID)
	}
	return job, nil
}

// Request returns the request a job was created from.
func (t *Tracker) Request(ctx context.Context, jobID string) (*core.GenerationRequest, error) {
	req, err := t.repo.GetRequest(ctx, jobID)
	if err != nil {
		return nil, translate(err, jobID)
	}
	return req, nil
}

// ListActive returns every pending or processing job, oldest first.
func (t *Tracker) ListActive(ctx context.Context) ([]*core.GenerationJob, error) {
	return t.repo.ListJobsByStatus(ctx, core.JobStatusPending, core.JobStatusProcessing)
}

// finish moves a job into a terminal state. A job that is already terminal
// is returned unchanged.
func (t *Tracker) finish(ctx context.Context, jobID string, status core.JobStatus, fn func(*core.GenerationJob) error) (*core.GenerationJob, error) {
	job, err := t.update(ctx, jobID, func(job *core.GenerationJob) error {
		if job.Status.IsTerminal() {
			return errUnchanged
		}
		if fn != nil {
			if err := fn(job); err != nil {
				return err
			}
		}
		job.Status = status
		job.CompletedAt = t.timestamp()
		job.EstimatedMinutesRemaining = 0
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return t.Snapshot(ctx, jobID)
	}
	if err != nil {
		return nil, err
	}

	t.logger.Info("job finished", "job", jobID, "status", status)
	t.publish(terminalEvent(status), job)
	return job, nil
}

func (t *Tracker) update(ctx context.Context, jobID string, fn func(*core.GenerationJob) error) (*core.GenerationJob, error) {
	job, err := t.repo.UpdateJob(ctx, jobID, fn)
	if err != nil {
		return nil, translate(err, jobID)
	}
	return job, nil
}

func (t *Tracker) publish(eventType core.EventType, job *core.GenerationJob) {
	if job.SessionID == "" {
		return
	}
	t.publisher.Publish(job.SessionID, core.NewEvent(eventType, job))
}

// timestamp is the current time at the precision records are stored with.
func (t *Tracker) timestamp() time.Time {
	return t.now().UTC().Truncate(time.Microsecond)
}

// estimateMinutes extrapolates the remaining time from the elapsed time and
// the fraction already done.
func (t *Tracker) estimateMinutes(job *core.GenerationJob) int {
	if job.ProgressPercentage >= 100 {
		return 0
	}
	if job.ProgressPercentage <= 0 || job.StartedAt.IsZero() {
		return job.EstimatedMinutesRemaining
	}
	elapsed := t.now().Sub(job.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	remaining := elapsed.Minutes() * float64(100-job.ProgressPercentage) / float64(job.ProgressPercentage)
	return int(math.Ceil(remaining))
}

func terminalEvent(status core.JobStatus) core.EventType {
	switch status {
	case core.JobStatusCompleted:
		return core.EventCompleted
	case core.JobStatusCancelled:
		return core.EventCancelled
	default:
		return core.EventFailed
	}
}

func translate(err error, jobID string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}
	return err
}
