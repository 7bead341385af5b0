package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/syllabus/core"
)

const (
	// DefaultCapacity is the number of submitted jobs that may wait for a worker.
	DefaultCapacity = 64

	// InterruptedReason is logged on processing jobs found by Recover.
	InterruptedReason = "interrupted"
)

// JobTracker is the part of the progress tracker the queue needs.
type JobTracker interface {
	Create(ctx context.Context, req *core.GenerationRequest) (*core.GenerationJob, error)
	ActiveForRoadmap(ctx context.Context, roadmapID string) (*core.GenerationJob, error)
	Cancel(ctx context.Context, jobID string) (*core.GenerationJob, error)
	Fail(ctx context.Context, jobID, reason string) (*core.GenerationJob, error)
	Snapshot(ctx context.Context, jobID string) (*core.GenerationJob, error)
	ListActive(ctx context.Context) ([]*core.GenerationJob, error)
}

// Runner executes one job to completion. cancelled reports whether the job
// was cancelled since it was dispatched.
type Runner interface {
	Run(ctx context.Context, jobID string, cancelled func() bool) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, jobID string, cancelled func() bool) error

func (f RunnerFunc) Run(ctx context.Context, jobID string, cancelled func() bool) error {
	return f(ctx, jobID, cancelled)
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Queued   int `json:"queued"`
	Running  int `json:"running"`
	Workers  int `json:"workers"`
	Capacity int `json:"capacity"`
}

// Queue accepts generation jobs and runs them on a bounded worker pool.
type Queue struct {
	tracker  JobTracker
	runner   Runner
	workers  int
	capacity int
	logger   *slog.Logger

	pool    *ants.Pool
	pending chan string
	slots   chan struct{} // one per queued job, taken before it is created
	locks   sync.Map // job id -> struct{}
	flags   sync.Map // job id -> *atomic.Bool
	running atomic.Int32

	mu       sync.Mutex
	started  bool
	stopped  bool
	quit     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// WithWorkers sets the number of jobs that may run at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			n = 1
		}
		q.workers = n
		return nil
	}
}

// WithCapacity sets how many jobs may wait for a worker before Submit
// rejects new ones.
// Default is DefaultCapacity.
func WithCapacity(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			return fmt.Errorf("queue capacity must be positive, got %d", n)
		}
		q.capacity = n
		return nil
	}
}

// NewQueue creates a queue. Jobs are accepted immediately but only run after Start.
func NewQueue(tracker JobTracker, runner Runner, opts ...Option) (*Queue, error) {
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if runner == nil {
		return nil, ErrRunnerRequired
	}

	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	q := &Queue{
		tracker:  tracker,
		runner:   runner,
		workers:  workers,
		capacity: DefaultCapacity,
		logger:   slog.Default(),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	q.logger = q.logger.With("component", "queue")

	pool, err := ants.NewPool(q.workers, ants.WithPanicHandler(func(p any) {
		q.logger.Error("worker panicked", "panic", p)
	}))
	if err != nil {
		return nil, err
	}
	q.pool = pool
	q.pending = make(chan string, q.capacity)
	q.slots = make(chan struct{}, q.capacity)
	return q, nil
}

// Submit registers a job for req and queues it. If the roadmap already has
// an active job, that job's id is returned and nothing is queued. When the
// queue is full no job is created and core.ErrQueueFull is returned.
func (q *Queue) Submit(ctx context.Context, req *core.GenerationRequest) (string, error) {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return "", ErrClosed
	}
	if err := core.ValidateGenerationRequest(req); err != nil {
		return "", err
	}

	select {
	case q.slots <- struct{}{}:
	default:
		// resubmitting a queued roadmap still resolves to its job
		if active, err := q.tracker.ActiveForRoadmap(ctx, req.RoadmapID); err == nil {
			q.logger.Debug("duplicate submission", "roadmap", req.RoadmapID, "job", active.ID)
			return active.ID, nil
		}
		q.logger.Warn("queue full, submission rejected", "roadmap", req.RoadmapID, "capacity", q.capacity)
		return "", core.ErrQueueFull
	}

	job, err := q.tracker.Create(ctx, req)
	if err != nil {
		<-q.slots
		var dup *core.DuplicateJobError
		if errors.As(err, &dup) {
			q.logger.Debug("duplicate submission", "roadmap", req.RoadmapID, "job", dup.ExistingJobID)
			return dup.ExistingJobID, nil
		}
		return "", err
	}

	// never blocks: the slot guarantees room
	q.pending <- job.ID
	q.logger.Debug("job queued", "job", job.ID, "queued", len(q.pending))
	return job.ID, nil
}

// Cancel asks a job to stop. A pending job is cancelled at once; a running
// job stops before its next step. Cancelling a finished job changes nothing.
func (q *Queue) Cancel(ctx context.Context, jobID string) (*core.GenerationJob, error) {
	job, err := q.tracker.Snapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, nil
	}

	q.flag(jobID).Store(true)
	if !q.lock(jobID) {
		// the worker clears the flag when it returns, unless it already has
		job, err = q.tracker.Snapshot(ctx, jobID)
		if err != nil {
			q.flags.Delete(jobID)
			return nil, err
		}
		if job.Status.IsTerminal() {
			q.flags.Delete(jobID)
			return job, nil
		}
		q.logger.Info("cancellation requested", "job", jobID)
		return job, nil
	}
	defer q.unlock(jobID)

	// re-read under the lock; a worker may have claimed it meanwhile
	job, err = q.tracker.Snapshot(ctx, jobID)
	if err != nil {
		q.flags.Delete(jobID)
		return nil, err
	}
	if job.Status != core.JobStatusPending {
		// no worker holds the job, so nothing reads the flag
		q.flags.Delete(jobID)
		return job, nil
	}
	q.flags.Delete(jobID)
	return q.tracker.Cancel(ctx, jobID)
}

// Recover restores persisted work after a restart. Pending jobs are queued
// again and processing jobs, whose worker died with the previous process, are
// failed. It returns the number of jobs queued.
//
// Recover blocks while the queue is full, so call it after Start.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	jobs, err := q.tracker.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, job := range jobs {
		switch job.Status {
		case core.JobStatusProcessing:
			if _, held := q.locks.Load(job.ID); held {
				continue
			}
			if _, err := q.tracker.Fail(ctx, job.ID, InterruptedReason); err != nil {
				return requeued, err
			}
			q.flags.Delete(job.ID)
			q.logger.Warn("failed interrupted job", "job", job.ID, "step", job.CurrentStep)
		case core.JobStatusPending:
			select {
			case q.slots <- struct{}{}:
				q.pending <- job.ID
				requeued++
			case <-ctx.Done():
				return requeued, ctx.Err()
			}
		}
	}

	if requeued > 0 || len(jobs) > 0 {
		q.logger.Info("recovered jobs", "active", len(jobs), "requeued", requeued)
	}
	return requeued, nil
}

// Start begins dispatching queued jobs. Jobs run with ctx; cancelling it
// interrupts them mid-step and leaves them for Recover.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrClosed
	}
	if q.started {
		return ErrAlreadyStarted
	}
	q.started = true
	go q.dispatch(ctx)
	q.logger.Info("queue started", "workers", q.workers, "capacity", q.capacity)
	return nil
}

// Stop stops dispatching and waits for running jobs to return. Jobs still
// queued stay pending in storage.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	started := q.started
	close(q.quit)
	q.mu.Unlock()

	if started {
		<-q.done
	}
	q.inflight.Wait()
	q.pool.Release()
	q.logger.Info("queue stopped", "left_queued", len(q.pending))
}

// Stats reports queue depth and worker usage.
func (q *Queue) Stats() Stats {
	return Stats{
		Queued:   len(q.pending),
		Running:  int(q.running.Load()),
		Workers:  q.workers,
		Capacity: q.capacity,
	}
}

func (q *Queue) dispatch(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.quit:
			return
		case jobID := <-q.pending:
			<-q.slots
			if !q.lock(jobID) {
				q.logger.Warn("job is locked, skipping dispatch", "job", jobID)
				continue
			}
			q.inflight.Add(1)
			// blocks until a worker is free
			err := q.pool.Submit(func() {
				defer q.inflight.Done()
				defer q.unlock(jobID)
				q.process(ctx, jobID)
			})
			if err != nil {
				q.inflight.Done()
				q.unlock(jobID)
				q.logger.Error("failed to dispatch job", "job", jobID, "err", err)
				return
			}
		}
	}
}

func (q *Queue) process(ctx context.Context, jobID string) {
	q.running.Add(1)
	defer q.running.Add(-1)
	defer q.flags.Delete(jobID)
	defer func() {
		if p := recover(); p != nil {
			q.logger.Error("job panicked", "job", jobID, "panic", p)
			if _, err := q.tracker.Fail(ctx, jobID, fmt.Sprintf("panic: %v", p)); err != nil {
				q.logger.Error("failed to mark panicked job", "job", jobID, "err", err)
			}
		}
	}()

	start := time.Now()
	flag := q.flag(jobID)
	if err := q.runner.Run(ctx, jobID, flag.Load); err != nil {
		if ctx.Err() != nil {
			q.logger.Info("job interrupted by shutdown", "job", jobID)
			return
		}
		q.logger.Error("job run failed", "job", jobID, "err", err)
		return
	}
	q.logger.Debug("job returned", "job", jobID, "elapsed", time.Since(start))
}

func (q *Queue) lock(jobID string) bool {
	_, held := q.locks.LoadOrStore(jobID, struct{}{})
	return !held
}

func (q *Queue) unlock(jobID string) {
	q.locks.Delete(jobID)
}

func (q *Queue) flag(jobID string) *atomic.Bool {
	v, _ := q.flags.LoadOrStore(jobID, new(atomic.Bool))
	return v.(*atomic.Bool)
}
