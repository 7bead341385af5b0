// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored embeddings.
// It is generated from database sequences or content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// ErrorEntry is one line of a job's error log.
type ErrorEntry struct {
	Step      string    `json:"step"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationJob tracks one course-generation request end to end.
// A job is mutated only by the worker that owns it.
type GenerationJob struct {
	ID                        string           `json:"jobId"`
	CourseID                  string           `json:"courseId"`
	RoadmapID                 string           `json:"roadmapId"`
	SessionID                 string           `json:"sessionId,omitempty"`
	Status                    JobStatus        `json:"status"`
	CurrentStep               string           `json:"currentStep"`
	ProgressPercentage        int              `json:"progressPercentage"`
	CurrentSectionIndex       int              `json:"currentSectionIndex"`
	CurrentSubtopicIndex      int              `json:"currentSubtopicIndex"`
	TotalSections             int              `json:"totalSections"`
	TotalSubtopics            int              `json:"totalSubtopics"`
	EstimatedMinutesRemaining int              `json:"estimatedMinutesRemaining"`
	ErrorLog                  []ErrorEntry     `json:"errorLog"`
	RetryCount                int              `json:"retryCount"`
	MaxRetries                int              `json:"maxRetries"`
	FinalPayload              *CourseStructure `json:"finalPayload,omitempty"`
	CreatedAt                 time.Time        `json:"createdAt"`
	StartedAt                 time.Time        `json:"startedAt,omitzero"`
	CompletedAt               time.Time        `json:"completedAt,omitzero"`
	UpdatedAt                 time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy of the job so snapshots never alias stored state.
func (j *GenerationJob) Clone() *GenerationJob {
	if j == nil {
		return nil
	}
	c := *j
	if j.ErrorLog != nil {
		c.ErrorLog = make([]ErrorEntry, len(j.ErrorLog))
		copy(c.ErrorLog, j.ErrorLog)
	}
	c.FinalPayload = j.FinalPayload.Clone()
	return &c
}

// SubtopicSpec is one subtopic of a roadmap section, as supplied by the caller.
type SubtopicSpec struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// SectionSpec is one section of a roadmap, as supplied by the caller.
type SectionSpec struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description,omitempty" validate:"max=2000"`
	Subtopics   []SubtopicSpec `json:"subtopics" validate:"required,min=1,dive"`
}

// SectionOverride tunes generation for a single section.
type SectionOverride struct {
	Instructions  string `json:"instructions,omitempty" validate:"max=2000"`
	QuizQuestions int    `json:"quizQuestions,omitempty" validate:"gte=0,lte=50"`
	Flashcards    int    `json:"flashcards,omitempty" validate:"gte=0,lte=100"`
}

// GenerationRequest is the input of a submission. It is persisted with the job so
// queued work survives a restart.
type GenerationRequest struct {
	CourseID    string                  `json:"courseId" validate:"required,max=128"`
	RoadmapID   string                  `json:"roadmapId" validate:"required,max=128"`
	SessionID   string                  `json:"sessionId,omitempty" validate:"max=128"`
	Title       string                  `json:"title" validate:"required,max=200"`
	Description string                  `json:"description,omitempty" validate:"max=4000"`
	Sections    []SectionSpec           `json:"sections" validate:"required,min=1,dive"`
	Overrides   map[int]SectionOverride `json:"perSectionOverrides,omitempty" validate:"omitempty,dive"`
}

// TotalSubtopics counts the subtopics across all sections.
func (r *GenerationRequest) TotalSubtopics() int {
	total := 0
	for _, s := range r.Sections {
		total += len(s.Subtopics)
	}
	return total
}

// Override returns the override for a section, or the zero value.
func (r *GenerationRequest) Override(sectionIdx int) SectionOverride {
	if r.Overrides == nil {
		return SectionOverride{}
	}
	return r.Overrides[sectionIdx]
}

// SubtopicResult records what the pipeline produced for one subtopic.
type SubtopicResult struct {
	Title         string `json:"title"`
	LessonPath    string `json:"lessonPath"`
	QuizPath      string `json:"quizPath"`
	FlashcardPath string `json:"flashcardPath"`
	QuizQuestions int    `json:"quizQuestions"`
	Flashcards    int    `json:"flashcards"`
	EmbeddingID   ID     `json:"embeddingId"`
}

// SectionResult records what the pipeline produced for one section.
type SectionResult struct {
	Title        string           `json:"title"`
	OverviewPath string           `json:"overviewPath"`
	Subtopics    []SubtopicResult `json:"subtopics"`
}

// CourseStructure is the final payload of a completed job.
type CourseStructure struct {
	CourseID    string          `json:"courseId"`
	RoadmapID   string          `json:"roadmapId"`
	Title       string          `json:"title"`
	RootPath    string          `json:"rootPath"`
	Sections    []SectionResult `json:"sections"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Clone returns a deep copy of the structure.
func (c *CourseStructure) Clone() *CourseStructure {
	if c == nil {
		return nil
	}
	out := *c
	out.Sections = make([]SectionResult, len(c.Sections))
	for i, s := range c.Sections {
		out.Sections[i] = s
		out.Sections[i].Subtopics = append([]SubtopicResult(nil), s.Subtopics...)
	}
	return &out
}

// ContentType tags what kind of course material an embedding represents.
type ContentType string

const (
	ContentTypeLesson     ContentType = "lesson"
	ContentTypeQuiz       ContentType = "quiz"
	ContentTypeFlashcards ContentType = "flashcards"
	ContentTypeSection    ContentType = "section"
	ContentTypeCourse     ContentType = "course"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	ContentTypeLesson,
	ContentTypeQuiz,
	ContentTypeFlashcards,
	ContentTypeSection,
	ContentTypeCourse,
}

// VectorEmbedding is a stored piece of course content with its embedding vector.
type VectorEmbedding struct {
	ID          ID                `json:"id"`
	CourseID    string            `json:"courseId"`
	ContentID   string            `json:"contentId,omitempty"`
	ContentType ContentType       `json:"contentType"`
	ContentText string            `json:"contentText"`
	ContentHash ID                `json:"contentHash"`
	Vector      []float32         `json:"-"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SearchResult is one ranked hit from a vector search.
type SearchResult struct {
	Embedding *VectorEmbedding
	Score     float64
}

// EventType identifies a push notification.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventError     EventType = "error"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
	EventSnapshot  EventType = "snapshot"
)

// Event is the push payload delivered to subscribed sessions.
type Event struct {
	Type                   EventType        `json:"type"`
	JobID                  string           `json:"jobId"`
	Status                 JobStatus        `json:"status"`
	ProgressPercentage     int              `json:"progressPercentage"`
	CurrentStep            string           `json:"currentStep"`
	EstimatedTimeRemaining int              `json:"estimatedTimeRemaining"`
	CurrentSection         *int             `json:"currentSection,omitempty"`
	CurrentSubtopic        *int             `json:"currentSubtopic,omitempty"`
	Errors                 []ErrorEntry     `json:"errors,omitempty"`
	FinalPayload           *CourseStructure `json:"finalPayload,omitempty"`
	Timestamp              time.Time        `json:"timestamp"`
}

// NewEvent builds an event from the current state of a job.
func NewEvent(eventType EventType, job *GenerationJob) Event {
	section := job.CurrentSectionIndex
	subtopic := job.CurrentSubtopicIndex
	ev := Event{
		Type:                   eventType,
		JobID:                  job.ID,
		Status:                 job.Status,
		ProgressPercentage:     job.ProgressPercentage,
		CurrentStep:            job.CurrentStep,
		EstimatedTimeRemaining: job.EstimatedMinutesRemaining,
		CurrentSection:         &section,
		CurrentSubtopic:        &subtopic,
		Timestamp:              time.Now().UTC(),
	}
	if len(job.ErrorLog) > 0 {
		ev.Errors = append([]ErrorEntry(nil), job.ErrorLog...)
	}
	if job.FinalPayload != nil {
		ev.FinalPayload = job.FinalPayload.Clone()
	}
	return ev
}
