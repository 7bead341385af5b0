package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/progress"
	"github.com/poiesic/syllabus/rag"
)

const (
	// DefaultStepTimeout bounds a single generator or embedding call.
	DefaultStepTimeout = 2 * time.Minute

	defaultQuizQuestions = 5
	defaultFlashcards    = 8
)

// JobTracker is the part of the progress tracker the pipeline drives.
type JobTracker interface {
	Start(ctx context.Context, jobID string) (*core.GenerationJob, error)
	Request(ctx context.Context, jobID string) (*core.GenerationRequest, error)
	Advance(ctx context.Context, jobID, step string, percentage int, pos *progress.Position) (*core.GenerationJob, error)
	RecordError(ctx context.Context, jobID, step, message string) (*core.GenerationJob, error)
	Complete(ctx context.Context, jobID string, payload *core.CourseStructure) (*core.GenerationJob, error)
	Fail(ctx context.Context, jobID, reason string) (*core.GenerationJob, error)
	Cancel(ctx context.Context, jobID string) (*core.GenerationJob, error)
}

// ContentIndex stores lesson text for retrieval.
type ContentIndex interface {
	Upsert(ctx context.Context, req rag.StoreRequest) (*core.VectorEmbedding, error)
}

// Orchestrator runs the generation pipeline for one job at a time per call.
// Steps of a job run strictly in order; a failed step is retried with
// exponential backoff until the job's retry budget is spent.
type Orchestrator struct {
	tracker       JobTracker
	generator     ai.ContentGenerator
	index         ContentIndex
	materializer  Materializer
	backoff       Backoff
	stepTimeout   time.Duration
	quizQuestions int
	flashcards    int
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithBackoff sets the retry delay policy. A zero limit leaves it uncapped.
// Default is DefaultBackoff.
func WithBackoff(base, limit time.Duration) Option {
	return func(o *Orchestrator) error {
		if base < 0 || limit < 0 {
			return errors.New("backoff durations must not be negative")
		}
		o.backoff = Backoff{Base: base, Cap: limit}
		return nil
	}
}

// WithStepTimeout bounds each external call.
// Default is DefaultStepTimeout.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return fmt.Errorf("step timeout must be positive, got %s", d)
		}
		o.stepTimeout = d
		return nil
	}
}

// WithDefaultCounts sets the quiz and flashcard sizes used when a section has
// no override.
func WithDefaultCounts(quizQuestions, flashcards int) Option {
	return func(o *Orchestrator) error {
		if quizQuestions < 1 || flashcards < 1 {
			return errors.New("quiz and flashcard counts must be positive")
		}
		o.quizQuestions = quizQuestions
		o.flashcards = flashcards
		return nil
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(tracker JobTracker, generator ai.ContentGenerator, index ContentIndex, materializer Materializer, opts ...Option) (*Orchestrator, error) {
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if materializer == nil {
		return nil, ErrMaterializerRequired
	}

	o := &Orchestrator{
		tracker:       tracker,
		generator:     generator,
		index:         index,
		materializer:  materializer,
		backoff:       DefaultBackoff,
		stepTimeout:   DefaultStepTimeout,
		quizQuestions: defaultQuizQuestions,
		flashcards:    defaultFlashcards,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o, nil
}

// Run claims a pending job and executes its pipeline to a terminal state.
// cancelled is polled before every step attempt; when it reports true the job
// is cancelled and no further step runs.
//
// Step failures never surface here: they end in the job's error log and, once
// retries are spent, in status failed. Run returns an error only if the job
// state itself cannot be read or written, or ctx ends.
func (o *Orchestrator) Run(ctx context.Context, jobID string, cancelled func() bool) error {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	job, err := o.tracker.Start(ctx, jobID)
	if err != nil {
		if errors.Is(err, core.ErrTerminalJob) {
			o.logger.Debug("job already finished, skipping", "job", jobID)
			return nil
		}
		return err
	}

	req, err := o.tracker.Request(ctx, jobID)
	if err != nil {
		if _, failErr := o.tracker.Fail(ctx, jobID, "request unavailable: "+err.Error()); failErr != nil {
			return errors.Join(err, failErr)
		}
		return err
	}

	r := newRun(o, job, req, cancelled)
	r.logger.Info("pipeline started", "sections", len(req.Sections), "subtopics", r.total)

	err = r.execute(ctx)
	if errors.Is(err, errHalted) {
		return nil
	}
	return err
}

// run is the state of one pipeline execution.
type run struct {
	*Orchestrator
	jobID     string
	req       *core.GenerationRequest
	cancelled func() bool
	course    *core.CourseStructure
	total     int
	lesson    string
	logger    *slog.Logger
}

func newRun(o *Orchestrator, job *core.GenerationJob, req *core.GenerationRequest, cancelled func() bool) *run {
	course := &core.CourseStructure{
		CourseID:  req.CourseID,
		RoadmapID: req.RoadmapID,
		Title:     req.Title,
		RootPath:  req.CourseID,
		Sections:  make([]core.SectionResult, len(req.Sections)),
	}
	for si, section := range req.Sections {
		result := core.SectionResult{
			Title:        section.Title,
			OverviewPath: sectionDir(req.CourseID, si) + "/" + overviewFile,
			Subtopics:    make([]core.SubtopicResult, len(section.Subtopics)),
		}
		for ti, subtopic := range section.Subtopics {
			dir := subtopicDir(req.CourseID, si, ti, subtopic.Title)
			result.Subtopics[ti] = core.SubtopicResult{
				Title:         subtopic.Title,
				LessonPath:    dir + "/" + lessonFile,
				QuizPath:      dir + "/" + quizFile,
				FlashcardPath: dir + "/" + flashcardsFile,
			}
		}
		course.Sections[si] = result
	}

	return &run{
		Orchestrator: o,
		jobID:        job.ID,
		req:          req,
		cancelled:    cancelled,
		course:       course,
		total:        req.TotalSubtopics(),
		logger:       o.logger.With("job", job.ID, "course", req.CourseID),
	}
}

func (r *run) execute(ctx context.Context) error {
	if err := r.step(ctx, StepCreateFileStructure, &progress.Position{}, 0, r.createFileStructure); err != nil {
		return err
	}

	for si := range r.req.Sections {
		pos := &progress.Position{Section: si}
		err := r.step(ctx, StepGenerateRoadmapSections, pos, 0, func(ctx context.Context) error {
			return r.generateSectionOverview(ctx, si)
		})
		if err != nil {
			return err
		}
	}

	done := 0
	for si, section := range r.req.Sections {
		for ti := range section.Subtopics {
			pos := &progress.Position{Section: si, Subtopic: ti}
			steps := []struct {
				name string
				fn   func(context.Context) error
			}{
				{StepGenerateSubtopicContent, func(ctx context.Context) error { return r.generateLesson(ctx, si, ti) }},
				{StepGenerateQuiz, func(ctx context.Context) error { return r.generateQuiz(ctx, si, ti) }},
				{StepGenerateFlashcards, func(ctx context.Context) error { return r.generateFlashcards(ctx, si, ti) }},
				{StepGenerateEmbeddings, func(ctx context.Context) error { return r.generateEmbeddings(ctx, si, ti) }},
			}
			for q, s := range steps {
				if err := r.step(ctx, s.name, pos, percentAt(done, q+1, r.total), s.fn); err != nil {
					return err
				}
			}
			done++
		}
	}

	if err := r.step(ctx, StepFinalize, nil, 100, r.finalize); err != nil {
		return err
	}

	if _, err := r.tracker.Complete(ctx, r.jobID, r.course); err != nil {
		return err
	}
	r.logger.Info("pipeline completed")
	return nil
}

// step runs fn until it succeeds, the job runs out of retries, or the job is
// cancelled. On success the job advances to percentage.
func (r *run) step(ctx context.Context, name string, pos *progress.Position, percentage int, fn func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if r.cancelled() {
			if _, err := r.tracker.Cancel(ctx, r.jobID); err != nil {
				return err
			}
			r.logger.Info("pipeline cancelled", "before_step", name)
			return errHalted
		}

		callCtx, cancel := context.WithTimeout(ctx, r.stepTimeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			if _, err := r.tracker.Advance(ctx, r.jobID, name, percentage, pos); err != nil {
				if errors.Is(err, core.ErrTerminalJob) {
					return errHalted
				}
				return err
			}
			return nil
		}

		// Shutdown, not a step failure. The job is left for recovery.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		stepErr := &core.StepExecutionError{Step: name, Attempt: attempt, Err: err}
		if permanent(err) {
			r.logger.Error("step failed permanently", "step", name, "err", err)
			if _, failErr := r.tracker.Fail(ctx, r.jobID, stepErr.Error()); failErr != nil {
				return failErr
			}
			return errHalted
		}

		job, recErr := r.tracker.RecordError(ctx, r.jobID, name, stepErr.Error())
		if recErr != nil {
			if errors.Is(recErr, core.ErrTerminalJob) {
				return errHalted
			}
			return recErr
		}
		if job.Status.IsTerminal() {
			return errHalted
		}

		delay := r.backoff.Delay(job.RetryCount - 1)
		r.logger.Debug("retrying step", "step", name, "attempt", attempt+1, "delay", delay)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, core.ErrEmbeddingDimension) || errors.Is(err, core.ErrInvalidRequest)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *run) createFileStructure(ctx context.Context) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", r.req.Title)
	if r.req.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", r.req.Description)
	}
	for si, section := range r.req.Sections {
		fmt.Fprintf(&sb, "\n## %d. %s\n\n", si+1, section.Title)
		for ti, subtopic := range section.Subtopics {
			fmt.Fprintf(&sb, "%d. %s\n", ti+1, subtopic.Title)
		}
	}

	if err := r.write(ctx, r.req.CourseID+"/"+outlineFile, []byte(sb.String())); err != nil {
		return err
	}
	return r.writeJSON(ctx, r.req.CourseID+"/"+structureFile, r.course)
}

func (r *run) generateSectionOverview(ctx context.Context, si int) error {
	overview, err := r.generator.GenerateSectionOverview(ctx, r.sectionContext(si))
	if err != nil {
		return err
	}
	return r.write(ctx, r.course.Sections[si].OverviewPath, []byte(overview))
}

func (r *run) generateLesson(ctx context.Context, si, ti int) error {
	lesson, err := r.generator.GenerateLesson(ctx, r.subtopicContext(si, ti))
	if err != nil {
		return err
	}
	if strings.TrimSpace(lesson) == "" {
		return core.ErrEmptyContent
	}
	if err := r.write(ctx, r.course.Sections[si].Subtopics[ti].LessonPath, []byte(lesson)); err != nil {
		return err
	}
	r.lesson = lesson
	return nil
}

type quizArtifact struct {
	Subtopic  string            `json:"subtopic"`
	Questions []ai.QuizQuestion `json:"questions"`
}

func (r *run) generateQuiz(ctx context.Context, si, ti int) error {
	count := r.req.Override(si).QuizQuestions
	if count <= 0 {
		count = r.quizQuestions
	}
	questions, err := r.generator.GenerateQuiz(ctx, r.subtopicContext(si, ti), r.lesson, count)
	if err != nil {
		return err
	}
	result := &r.course.Sections[si].Subtopics[ti]
	if err := r.writeJSON(ctx, result.QuizPath, quizArtifact{Subtopic: result.Title, Questions: questions}); err != nil {
		return err
	}
	result.QuizQuestions = len(questions)
	return nil
}

type flashcardArtifact struct {
	Subtopic string         `json:"subtopic"`
	Cards    []ai.Flashcard `json:"cards"`
}

func (r *run) generateFlashcards(ctx context.Context, si, ti int) error {
	count := r.req.Override(si).Flashcards
	if count <= 0 {
		count = r.flashcards
	}
	cards, err := r.generator.GenerateFlashcards(ctx, r.subtopicContext(si, ti), r.lesson, count)
	if err != nil {
		return err
	}
	result := &r.course.Sections[si].Subtopics[ti]
	if err := r.writeJSON(ctx, result.FlashcardPath, flashcardArtifact{Subtopic: result.Title, Cards: cards}); err != nil {
		return err
	}
	result.Flashcards = len(cards)
	return nil
}

func (r *run) generateEmbeddings(ctx context.Context, si, ti int) error {
	subtopic := r.req.Sections[si].Subtopics[ti]
	result := &r.course.Sections[si].Subtopics[ti]

	embedding, err := r.index.Upsert(ctx, rag.StoreRequest{
		CourseID:    r.req.CourseID,
		ContentID:   contentID(si, ti),
		ContentType: core.ContentTypeLesson,
		ContentText: r.lesson,
		Title:       subtopic.Title,
		Description: subtopic.Description,
		Metadata: map[string]string{
			"roadmapId": r.req.RoadmapID,
			"section":   strconv.Itoa(si),
			"subtopic":  strconv.Itoa(ti),
			"path":      result.LessonPath,
		},
	})
	if err != nil {
		return err
	}
	result.EmbeddingID = embedding.ID
	return nil
}

func (r *run) finalize(ctx context.Context) error {
	r.course.GeneratedAt = time.Now().UTC().Truncate(time.Microsecond)
	return r.writeJSON(ctx, r.req.CourseID+"/"+courseFile, r.course)
}

func (r *run) sectionContext(si int) ai.SectionContext {
	section := r.req.Sections[si]
	titles := make([]string, len(section.Subtopics))
	for i, s := range section.Subtopics {
		titles[i] = s.Title
	}
	return ai.SectionContext{
		Course:       ai.CourseContext{Title: r.req.Title, Description: r.req.Description},
		Index:        si,
		Title:        section.Title,
		Description:  section.Description,
		Subtopics:    titles,
		Instructions: r.req.Override(si).Instructions,
	}
}

func (r *run) subtopicContext(si, ti int) ai.SubtopicContext {
	subtopic := r.req.Sections[si].Subtopics[ti]
	return ai.SubtopicContext{
		Section:     r.sectionContext(si),
		Index:       ti,
		Title:       subtopic.Title,
		Description: subtopic.Description,
	}
}

func (r *run) write(ctx context.Context, path string, content []byte) error {
	if err := r.materializer.WriteArtifact(ctx, path, content); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (r *run) writeJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return r.write(ctx, path, data)
}
