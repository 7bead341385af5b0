package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/syllabus/ai"
)

// Method names accepted by FailOn and CallCount.
const (
	MethodSectionOverview = "GenerateSectionOverview"
	MethodLesson          = "GenerateLesson"
	MethodQuiz            = "GenerateQuiz"
	MethodFlashcards      = "GenerateFlashcards"
)

// MockGenerator is a test double for ai.ContentGenerator.
// By default it returns small deterministic content derived from its input.
// Individual calls can be made to fail with FailOn.
type MockGenerator struct {
	// Func fields override the default behavior when set.
	GenerateSectionOverviewFunc func(ctx context.Context, section ai.SectionContext) (string, error)
	GenerateLessonFunc          func(ctx context.Context, subtopic ai.SubtopicContext) (string, error)
	GenerateQuizFunc            func(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.QuizQuestion, error)
	GenerateFlashcardsFunc      func(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.Flashcard, error)

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]map[int]error
	hook     func(method string, call int)
}

var _ ai.ContentGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		calls:    make(map[string]int),
		failures: make(map[string]map[int]error),
	}
}

// FailOn makes the given 1-based calls of method return err.
func (m *MockGenerator) FailOn(method string, err error, calls ...int) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[method] == nil {
		m.failures[method] = make(map[int]error)
	}
	for _, n := range calls {
		m.failures[method][n] = err
	}
	return m
}

// OnCall registers a hook invoked at the start of every call with the
// method name and its 1-based call number.
func (m *MockGenerator) OnCall(hook func(method string, call int)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
	return m
}

// CallCount returns how often method has been called.
func (m *MockGenerator) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Reset clears call counts, failures, hooks and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.failures = make(map[string]map[int]error)
	m.hook = nil
	m.GenerateSectionOverviewFunc = nil
	m.GenerateLessonFunc = nil
	m.GenerateQuizFunc = nil
	m.GenerateFlashcardsFunc = nil
}

// record counts a call, runs the hook and returns any injected failure.
func (m *MockGenerator) record(method string) error {
	m.mu.Lock()
	m.calls[method]++
	n := m.calls[method]
	hook := m.hook
	err := m.failures[method][n]
	m.mu.Unlock()

	if hook != nil {
		hook(method, n)
	}
	return err
}

// GenerateSectionOverview returns a one-line overview naming the section.
func (m *MockGenerator) GenerateSectionOverview(ctx context.Context, section ai.SectionContext) (string, error) {
	if err := m.record(MethodSectionOverview); err != nil {
		return "", err
	}
	if m.GenerateSectionOverviewFunc != nil {
		return m.GenerateSectionOverviewFunc(ctx, section)
	}
	return fmt.Sprintf("# %s\n\nThis section covers %d subtopics.", section.Title, len(section.Subtopics)), nil
}

// GenerateLesson returns a short lesson naming the subtopic.
func (m *MockGenerator) GenerateLesson(ctx context.Context, subtopic ai.SubtopicContext) (string, error) {
	if err := m.record(MethodLesson); err != nil {
		return "", err
	}
	if m.GenerateLessonFunc != nil {
		return m.GenerateLessonFunc(ctx, subtopic)
	}
	return fmt.Sprintf("# %s\n\nA lesson about %s in %s.", subtopic.Title, subtopic.Title, subtopic.Section.Title), nil
}

// GenerateQuiz returns count two-option questions.
func (m *MockGenerator) GenerateQuiz(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.QuizQuestion, error) {
	if err := m.record(MethodQuiz); err != nil {
		return nil, err
	}
	if m.GenerateQuizFunc != nil {
		return m.GenerateQuizFunc(ctx, subtopic, lesson, count)
	}
	questions := make([]ai.QuizQuestion, count)
	for i := range questions {
		questions[i] = ai.QuizQuestion{
			Question:    fmt.Sprintf("Question %d about %s?", i+1, subtopic.Title),
			Options:     []string{"yes", "no"},
			AnswerIndex: 0,
		}
	}
	return questions, nil
}

// GenerateFlashcards returns count flashcards.
func (m *MockGenerator) GenerateFlashcards(ctx context.Context, subtopic ai.SubtopicContext, lesson string, count int) ([]ai.Flashcard, error) {
	if err := m.record(MethodFlashcards); err != nil {
		return nil, err
	}
	if m.GenerateFlashcardsFunc != nil {
		return m.GenerateFlashcardsFunc(ctx, subtopic, lesson, count)
	}
	cards := make([]ai.Flashcard, count)
	for i := range cards {
		cards[i] = ai.Flashcard{
			Front: fmt.Sprintf("%s term %d", subtopic.Title, i+1),
			Back:  fmt.Sprintf("%s definition %d", subtopic.Title, i+1),
		}
	}
	return cards, nil
}
