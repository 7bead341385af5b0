package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
}

func (p *recordingPublisher) Publish(sessionID string, event core.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []core.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupTracker(t *testing.T, opts ...Option) (*Tracker, *recordingPublisher) {
	t.Helper()
	jobRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		jobRepo.Close()
		backend.Close()
	})

	pub := &recordingPublisher{}
	tracker, err := NewTracker(jobRepo, append([]Option{WithPublisher(pub)}, opts...)...)
	require.NoError(t, err)
	return tracker, pub
}

func testRequest(roadmapID string) *core.GenerationRequest {
	return &core.GenerationRequest{
		CourseID:  "course-" + roadmapID,
		RoadmapID: roadmapID,
		SessionID: "session-1",
		Title:     "Concurrency in Go",
		Sections: []core.SectionSpec{
			{Title: "Basics", Subtopics: []core.SubtopicSpec{{Title: "Goroutines"}, {Title: "Channels"}}},
			{Title: "Patterns", Subtopics: []core.SubtopicSpec{{Title: "Pipelines"}}},
		},
	}
}

func startedJob(t *testing.T, tracker *Tracker) *core.GenerationJob {
	t.Helper()
	ctx := context.Background()
	job, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)
	job, err = tracker.Start(ctx, job.ID)
	require.NoError(t, err)
	return job
}

func TestCreate(t *testing.T) {
	tracker, pub := setupTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, core.JobStatusPending, job.Status)
	assert.Equal(t, StepQueued, job.CurrentStep)
	assert.Equal(t, 2, job.TotalSections)
	assert.Equal(t, 3, job.TotalSubtopics)
	assert.Equal(t, DefaultMaxRetries, job.MaxRetries)
	assert.Equal(t, []core.EventType{core.EventProgress}, pub.types())

	req, err := tracker.Request(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Concurrency in Go", req.Title)
}

func TestCreate_RejectsInvalidRequest(t *testing.T) {
	tracker, _ := setupTracker(t)

	req := testRequest("r1")
	req.Sections = nil
	_, err := tracker.Create(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestCreate_DuplicateRoadmap(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	first, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)

	_, err = tracker.Create(ctx, testRequest("r1"))
	var dup *core.DuplicateJobError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingJobID)
	assert.ErrorIs(t, err, core.ErrDuplicateJob)

	// a finished job frees the roadmap
	_, err = tracker.Cancel(ctx, first.ID)
	require.NoError(t, err)

	second, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreate_ConcurrentSameRoadmap(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := tracker.Create(ctx, testRequest("r1"))
			if err == nil {
				ids <- job.ID
				return
			}
			var dup *core.DuplicateJobError
			if assert.ErrorAs(t, err, &dup) {
				ids <- dup.ExistingJobID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)

	active, err := tracker.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestStart(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	job := startedJob(t, tracker)
	assert.Equal(t, core.JobStatusProcessing, job.Status)
	assert.False(t, job.StartedAt.IsZero())

	_, err := tracker.Start(ctx, job.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = tracker.Start(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransitionResults_MatchSnapshot(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	created, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)
	snap, err := tracker.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, snap.CreatedAt)
	assert.Equal(t, created.UpdatedAt, snap.UpdatedAt)

	started, err := tracker.Start(ctx, created.ID)
	require.NoError(t, err)
	snap, err = tracker.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, started.StartedAt, snap.StartedAt)
	assert.Equal(t, started.UpdatedAt, snap.UpdatedAt)

	payload := &core.CourseStructure{CourseID: "course-r1", GeneratedAt: time.Now().UTC().Truncate(time.Microsecond)}
	done, err := tracker.Complete(ctx, created.ID, payload)
	require.NoError(t, err)
	snap, err = tracker.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt, snap.CompletedAt)
	assert.Equal(t, done.FinalPayload.GeneratedAt, snap.FinalPayload.GeneratedAt)
}

func TestAdvance(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tracker, pub := setupTracker(t, WithClock(clock.Now))
	ctx := context.Background()

	job := startedJob(t, tracker)

	clock.Advance(10 * time.Minute)
	job, err := tracker.Advance(ctx, job.ID, "generate_quiz", 25, &Position{Section: 0, Subtopic: 1})
	require.NoError(t, err)
	assert.Equal(t, "generate_quiz", job.CurrentStep)
	assert.Equal(t, 25, job.ProgressPercentage)
	assert.Equal(t, 1, job.CurrentSubtopicIndex)
	assert.Equal(t, 30, job.EstimatedMinutesRemaining)

	// same percentage is allowed
	job, err = tracker.Advance(ctx, job.ID, "generate_flashcards", 25, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, job.CurrentSubtopicIndex)

	_, err = tracker.Advance(ctx, job.ID, "generate_quiz", 20, nil)
	assert.ErrorIs(t, err, core.ErrPercentageRegression)

	_, err = tracker.Advance(ctx, job.ID, "x", 101, nil)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, core.EventProgress, last.Type)
	assert.Equal(t, 25, last.ProgressPercentage)
	require.NotNil(t, last.CurrentSubtopic)
	assert.Equal(t, 1, *last.CurrentSubtopic)
}

func TestAdvance_RequiresProcessing(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)

	_, err = tracker.Advance(ctx, job.ID, "step", 10, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = tracker.Cancel(ctx, job.ID)
	require.NoError(t, err)

	_, err = tracker.Advance(ctx, job.ID, "step", 10, nil)
	var terminal *core.TerminalJobError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, core.JobStatusCancelled, terminal.Status)
}

func TestRecordError_FailsOnceRetriesAreSpent(t *testing.T) {
	tracker, pub := setupTracker(t, WithMaxRetries(2))
	ctx := context.Background()

	job := startedJob(t, tracker)

	for i := 1; i <= 2; i++ {
		job, err := tracker.RecordError(ctx, job.ID, "generate_quiz", "timeout")
		require.NoError(t, err)
		assert.Equal(t, core.JobStatusProcessing, job.Status)
		assert.Equal(t, i, job.RetryCount)
	}

	job, err := tracker.RecordError(ctx, job.ID, "generate_quiz", "timeout")
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Equal(t, 2, job.RetryCount)
	assert.Len(t, job.ErrorLog, 3)
	assert.False(t, job.CompletedAt.IsZero())

	_, err = tracker.RecordError(ctx, job.ID, "generate_quiz", "timeout")
	assert.ErrorIs(t, err, core.ErrTerminalJob)

	// failing again is a no-op
	again, err := tracker.Fail(ctx, job.ID, "other")
	require.NoError(t, err)
	assert.Len(t, again.ErrorLog, 3)

	types := pub.types()
	failed := 0
	for _, tp := range types {
		if tp == core.EventFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestComplete(t *testing.T) {
	tracker, pub := setupTracker(t)
	ctx := context.Background()

	job := startedJob(t, tracker)
	payload := &core.CourseStructure{CourseID: job.CourseID, Title: "Concurrency in Go"}

	done, err := tracker.Complete(ctx, job.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, done.Status)
	assert.Equal(t, 100, done.ProgressPercentage)
	assert.Zero(t, done.EstimatedMinutesRemaining)
	require.NotNil(t, done.FinalPayload)
	assert.Equal(t, "Concurrency in Go", done.FinalPayload.Title)

	// idempotent, and cancelling a completed job changes nothing
	again, err := tracker.Complete(ctx, job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt.Unix(), again.CompletedAt.Unix())

	cancelled, err := tracker.Cancel(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, cancelled.Status)

	types := pub.types()
	assert.Equal(t, core.EventCompleted, types[len(types)-1])
}

func TestComplete_RequiresProcessing(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)

	_, err = tracker.Complete(ctx, job.ID, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestFail_AppendsReason(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	job := startedJob(t, tracker)
	failed, err := tracker.Fail(ctx, job.ID, "interrupted")
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusFailed, failed.Status)
	require.Len(t, failed.ErrorLog, 1)
	assert.Equal(t, "interrupted", failed.ErrorLog[0].Error)
}

func TestActiveForRoadmap(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	_, err := tracker.ActiveForRoadmap(ctx, "r1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	job, err := tracker.Create(ctx, testRequest("r1"))
	require.NoError(t, err)
	active, err := tracker.ActiveForRoadmap(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, active.ID)

	_, err = tracker.Cancel(ctx, job.ID)
	require.NoError(t, err)
	_, err = tracker.ActiveForRoadmap(ctx, "r1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPublish_SkipsJobsWithoutSession(t *testing.T) {
	tracker, pub := setupTracker(t)

	req := testRequest("r1")
	req.SessionID = ""
	_, err := tracker.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, pub.types())
}
