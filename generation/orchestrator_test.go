package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/ai/mock"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/progress"
	"github.com/poiesic/syllabus/rag"
	"github.com/poiesic/syllabus/storage"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ JobTracker = (*progress.Tracker)(nil)
var _ ContentIndex = (*rag.Store)(nil)

type eventLog struct {
	mu     sync.Mutex
	events []core.Event
}

func (l *eventLog) Publish(_ string, event core.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []core.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Event(nil), l.events...)
}

type pipelineEnv struct {
	tracker      *progress.Tracker
	store        *rag.Store
	embeddings   storage.EmbeddingRepository
	generator    *mock.MockGenerator
	materializer *MemoryMaterializer
	orchestrator *Orchestrator
	events       *eventLog
}

type envConfig struct {
	maxRetries int
	storeOpts  []rag.Option
	embedder   *mock.MockEmbedder
}

func setupPipeline(t *testing.T, cfg envConfig) *pipelineEnv {
	t.Helper()
	jobRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		jobRepo.Close()
		backend.Close()
	})

	if cfg.maxRetries == 0 {
		cfg.maxRetries = 3
	}
	if cfg.embedder == nil {
		cfg.embedder = mock.NewMockEmbedderWithDimension(16)
	}

	events := &eventLog{}
	tracker, err := progress.NewTracker(jobRepo,
		progress.WithPublisher(events),
		progress.WithMaxRetries(cfg.maxRetries))
	require.NoError(t, err)

	store, err := rag.NewStore(context.Background(), embRepo, cfg.embedder, cfg.storeOpts...)
	require.NoError(t, err)

	generator := mock.NewMockGenerator()
	materializer := NewMemoryMaterializer()
	orchestrator, err := NewOrchestrator(tracker, generator, store, materializer,
		WithBackoff(time.Millisecond, 5*time.Millisecond),
		WithStepTimeout(5*time.Second))
	require.NoError(t, err)

	return &pipelineEnv{
		tracker:      tracker,
		store:        store,
		embeddings:   embRepo,
		generator:    generator,
		materializer: materializer,
		orchestrator: orchestrator,
		events:       events,
	}
}

func singleSubtopicRequest(roadmapID string) *core.GenerationRequest {
	return &core.GenerationRequest{
		CourseID:  "course-go",
		RoadmapID: roadmapID,
		SessionID: "session-1",
		Title:     "Go Concurrency",
		Sections: []core.SectionSpec{{
			Title:     "Basics",
			Subtopics: []core.SubtopicSpec{{Title: "Goroutines", Description: "Lightweight threads"}},
		}},
	}
}

func multiSectionRequest(roadmapID string) *core.GenerationRequest {
	return &core.GenerationRequest{
		CourseID:  "course-go",
		RoadmapID: roadmapID,
		SessionID: "session-1",
		Title:     "Go Concurrency",
		Sections: []core.SectionSpec{
			{Title: "Basics", Subtopics: []core.SubtopicSpec{{Title: "Goroutines"}, {Title: "Channels"}}},
			{Title: "Patterns", Subtopics: []core.SubtopicSpec{{Title: "Pipelines"}}},
		},
	}
}

func (env *pipelineEnv) submit(t *testing.T, req *core.GenerationRequest) string {
	t.Helper()
	job, err := env.tracker.Create(context.Background(), req)
	require.NoError(t, err)
	return job.ID
}

func (env *pipelineEnv) job(t *testing.T, id string) *core.GenerationJob {
	t.Helper()
	job, err := env.tracker.Snapshot(context.Background(), id)
	require.NoError(t, err)
	return job
}

func statuses(events []core.Event) []core.JobStatus {
	var out []core.JobStatus
	for _, ev := range events {
		if len(out) == 0 || out[len(out)-1] != ev.Status {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	gen := mock.NewMockGenerator()
	mat := NewMemoryMaterializer()

	_, err := NewOrchestrator(nil, gen, env.store, mat)
	assert.ErrorIs(t, err, ErrTrackerRequired)
	_, err = NewOrchestrator(env.tracker, nil, env.store, mat)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
	_, err = NewOrchestrator(env.tracker, gen, nil, mat)
	assert.ErrorIs(t, err, ErrIndexRequired)
	_, err = NewOrchestrator(env.tracker, gen, env.store, nil)
	assert.ErrorIs(t, err, ErrMaterializerRequired)
	_, err = NewOrchestrator(env.tracker, gen, env.store, mat, WithStepTimeout(0))
	assert.Error(t, err)
	_, err = NewOrchestrator(env.tracker, gen, env.store, mat, WithDefaultCounts(0, 1))
	assert.Error(t, err)
}

func TestRun_SingleSubtopicCompletes(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	ctx := context.Background()

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(ctx, jobID, nil))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.ProgressPercentage)
	assert.Empty(t, job.ErrorLog)
	assert.False(t, job.CompletedAt.IsZero())

	assert.Equal(t,
		[]core.JobStatus{core.JobStatusPending, core.JobStatusProcessing, core.JobStatusCompleted},
		statuses(env.events.snapshot()))

	rows, err := env.embeddings.GetEmbeddingsByCourse(ctx, "course-go")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsActive)
	assert.Equal(t, "course-go", rows[0].CourseID)
	assert.Equal(t, core.ContentTypeLesson, rows[0].ContentType)
	assert.Equal(t, "Goroutines", rows[0].Title)

	require.NotNil(t, job.FinalPayload)
	require.Len(t, job.FinalPayload.Sections, 1)
	sub := job.FinalPayload.Sections[0].Subtopics[0]
	assert.Equal(t, rows[0].ID, sub.EmbeddingID)
	assert.Equal(t, 5, sub.QuizQuestions)
	assert.Equal(t, 8, sub.Flashcards)
	assert.False(t, job.FinalPayload.GeneratedAt.IsZero())
}

func TestRun_WritesArtifacts(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	assert.ElementsMatch(t, []string{
		"course-go/outline.md",
		"course-go/structure.json",
		"course-go/section-01/overview.md",
		"course-go/section-01/01-goroutines/lesson.md",
		"course-go/section-01/01-goroutines/quiz.json",
		"course-go/section-01/01-goroutines/flashcards.json",
		"course-go/course.json",
	}, env.materializer.Paths())

	outline, _ := env.materializer.File("course-go/outline.md")
	assert.Contains(t, string(outline), "# Go Concurrency")
	assert.Contains(t, string(outline), "1. Goroutines")

	quizJSON, _ := env.materializer.File("course-go/section-01/01-goroutines/quiz.json")
	var quiz quizArtifact
	require.NoError(t, json.Unmarshal(quizJSON, &quiz))
	assert.Equal(t, "Goroutines", quiz.Subtopic)
	assert.Len(t, quiz.Questions, 5)

	courseJSON, _ := env.materializer.File("course-go/course.json")
	var course core.CourseStructure
	require.NoError(t, json.Unmarshal(courseJSON, &course))
	assert.Equal(t, "course-go", course.RootPath)
	assert.NotZero(t, course.Sections[0].Subtopics[0].EmbeddingID)
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	jobID := env.submit(t, multiSectionRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	var steps []string
	var percentages []int
	last := -1
	for _, ev := range env.events.snapshot() {
		if ev.Type != core.EventProgress || ev.Status != core.JobStatusProcessing || ev.CurrentStep == "" {
			continue
		}
		require.GreaterOrEqual(t, ev.ProgressPercentage, last)
		last = ev.ProgressPercentage
		steps = append(steps, ev.CurrentStep)
		percentages = append(percentages, ev.ProgressPercentage)
	}

	// queued + structure + 2 overviews + 3 subtopics * 4 steps + finalize
	require.Len(t, steps, 1+1+2+12+1)
	assert.Equal(t, progress.StepQueued, steps[0])
	assert.Equal(t, StepCreateFileStructure, steps[1])
	assert.Equal(t, StepGenerateRoadmapSections, steps[2])
	assert.Equal(t, StepGenerateRoadmapSections, steps[3])
	assert.Equal(t, []string{StepGenerateSubtopicContent, StepGenerateQuiz, StepGenerateFlashcards, StepGenerateEmbeddings}, steps[4:8])
	assert.Equal(t, StepFinalize, steps[len(steps)-1])

	assert.Equal(t, []int{8, 16, 25, 33}, percentages[4:8])
	assert.Equal(t, 66, percentages[11])
	assert.Equal(t, 100, percentages[15])

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusCompleted, job.Status)

	rows, err := env.embeddings.GetEmbeddingsByCourse(context.Background(), "course-go")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRun_QuizFailsTwiceThenSucceeds(t *testing.T) {
	env := setupPipeline(t, envConfig{maxRetries: 3})
	env.generator.FailOn(mock.MethodQuiz, errors.New("model overloaded"), 1, 2)

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.ProgressPercentage)
	require.Len(t, job.ErrorLog, 2)
	for _, entry := range job.ErrorLog {
		assert.Equal(t, StepGenerateQuiz, entry.Step)
		assert.Contains(t, entry.Error, "model overloaded")
	}
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, 3, env.generator.CallCount(mock.MethodQuiz))
	assert.Equal(t, 1, env.generator.CallCount(mock.MethodLesson))
}

func TestRun_RetriesExhaustedFailsJob(t *testing.T) {
	env := setupPipeline(t, envConfig{maxRetries: 3})
	env.generator.FailOn(mock.MethodLesson, errors.New("boom"), 1, 2, 3, 4, 5)

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Equal(t, 3, job.RetryCount)
	assert.Len(t, job.ErrorLog, 4)
	assert.Equal(t, 4, env.generator.CallCount(mock.MethodLesson))
	assert.Zero(t, env.generator.CallCount(mock.MethodQuiz))

	// work already done is kept
	_, ok := env.materializer.File("course-go/outline.md")
	assert.True(t, ok)

	rows, err := env.embeddings.GetEmbeddingsByCourse(context.Background(), "course-go")
	require.NoError(t, err)
	assert.Empty(t, rows)

	failedEvents := 0
	for _, ev := range env.events.snapshot() {
		if ev.Type == core.EventFailed {
			failedEvents++
		}
	}
	assert.Equal(t, 1, failedEvents)
}

func TestRun_CancelMidPipeline(t *testing.T) {
	env := setupPipeline(t, envConfig{})

	var cancelled atomic.Bool
	env.generator.OnCall(func(method string, call int) {
		if method == mock.MethodQuiz {
			cancelled.Store(true)
		}
	})

	jobID := env.submit(t, multiSectionRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, cancelled.Load))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusCancelled, job.Status)
	assert.Equal(t, StepGenerateQuiz, job.CurrentStep, "the running step finishes")
	assert.Zero(t, env.generator.CallCount(mock.MethodFlashcards))
	assert.Equal(t, 1, env.generator.CallCount(mock.MethodQuiz))

	_, ok := env.materializer.File("course-go/section-01/01-goroutines/quiz.json")
	assert.True(t, ok)

	events := env.events.snapshot()
	require.NotEmpty(t, events)
	lastEvent := events[len(events)-1]
	assert.Equal(t, core.EventCancelled, lastEvent.Type)
	for _, ev := range events[:len(events)-1] {
		assert.NotEqual(t, core.EventCancelled, ev.Type)
	}
}

func TestRun_CancelledBeforeFirstStep(t *testing.T) {
	env := setupPipeline(t, envConfig{})

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, func() bool { return true }))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusCancelled, job.Status)
	assert.Empty(t, env.materializer.Paths())
}

func TestRun_SectionOverridesReachGenerator(t *testing.T) {
	env := setupPipeline(t, envConfig{})

	var mu sync.Mutex
	var instructions []string
	var quizCounts, cardCounts []int
	env.generator.GenerateSectionOverviewFunc = func(_ context.Context, s ai.SectionContext) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		instructions = append(instructions, s.Instructions)
		return "# " + s.Title, nil
	}
	env.generator.GenerateQuizFunc = func(_ context.Context, _ ai.SubtopicContext, lesson string, count int) ([]ai.QuizQuestion, error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NotEmpty(t, lesson)
		quizCounts = append(quizCounts, count)
		return make([]ai.QuizQuestion, count), nil
	}
	env.generator.GenerateFlashcardsFunc = func(_ context.Context, _ ai.SubtopicContext, _ string, count int) ([]ai.Flashcard, error) {
		mu.Lock()
		defer mu.Unlock()
		cardCounts = append(cardCounts, count)
		return make([]ai.Flashcard, count), nil
	}

	req := multiSectionRequest("r1")
	req.Overrides = map[int]core.SectionOverride{
		1: {Instructions: "Use diagrams", QuizQuestions: 2, Flashcards: 3},
	}
	jobID := env.submit(t, req)
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	assert.Equal(t, []string{"", "Use diagrams"}, instructions)
	assert.Equal(t, []int{5, 5, 2}, quizCounts)
	assert.Equal(t, []int{8, 8, 3}, cardCounts)

	job := env.job(t, jobID)
	require.NotNil(t, job.FinalPayload)
	assert.Equal(t, 2, job.FinalPayload.Sections[1].Subtopics[0].QuizQuestions)
}

func TestRun_DimensionMismatchFailsWithoutRetry(t *testing.T) {
	env := setupPipeline(t, envConfig{
		embedder:  mock.NewMockEmbedderWithDimension(4),
		storeOpts: []rag.Option{rag.WithDimension(8)},
	})

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(context.Background(), jobID, nil))

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Zero(t, job.RetryCount)
	require.Len(t, job.ErrorLog, 1)
	assert.Contains(t, job.ErrorLog[0].Error, StepGenerateEmbeddings)
}

func TestRun_RegenerationReusesEmbeddingRows(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	ctx := context.Background()

	first := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(ctx, first, nil))
	second := env.submit(t, singleSubtopicRequest("r1"))
	require.NoError(t, env.orchestrator.Run(ctx, second, nil))

	rows, err := env.embeddings.GetEmbeddingsByCourse(ctx, "course-go")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t,
		env.job(t, first).FinalPayload.Sections[0].Subtopics[0].EmbeddingID,
		env.job(t, second).FinalPayload.Sections[0].Subtopics[0].EmbeddingID)
}

func TestRun_TerminalJobIsSkipped(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	ctx := context.Background()

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	_, err := env.tracker.Cancel(ctx, jobID)
	require.NoError(t, err)

	require.NoError(t, env.orchestrator.Run(ctx, jobID, nil))
	assert.Zero(t, env.generator.CallCount(mock.MethodLesson))
	assert.Equal(t, core.JobStatusCancelled, env.job(t, jobID).Status)
}

func TestRun_ShutdownLeavesJobProcessing(t *testing.T) {
	env := setupPipeline(t, envConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	env.generator.GenerateLessonFunc = func(ctx context.Context, _ ai.SubtopicContext) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	}

	jobID := env.submit(t, singleSubtopicRequest("r1"))
	err := env.orchestrator.Run(ctx, jobID, nil)
	assert.ErrorIs(t, err, context.Canceled)

	job := env.job(t, jobID)
	assert.Equal(t, core.JobStatusProcessing, job.Status)
	assert.Empty(t, job.ErrorLog)
}
