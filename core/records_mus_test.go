package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationJobMUS_PreservesNestedPayload(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	job := GenerationJob{
		ID:                 "2f7c",
		CourseID:           "c1",
		RoadmapID:          "r1",
		SessionID:          "s1",
		Status:             JobStatusCompleted,
		CurrentStep:        "finalize",
		ProgressPercentage: 100,
		TotalSections:      1,
		TotalSubtopics:     2,
		ErrorLog: []ErrorEntry{
			{Step: "generate_quiz", Error: "timeout", Timestamp: now},
		},
		RetryCount: 1,
		MaxRetries: 3,
		FinalPayload: &CourseStructure{
			CourseID: "c1",
			Title:    "Go",
			Sections: []SectionResult{{
				Title:     "Basics",
				Subtopics: []SubtopicResult{{Title: "Types", EmbeddingID: 42, QuizQuestions: 5}},
			}},
			GeneratedAt: now,
		},
		CreatedAt:   now,
		StartedAt:   now,
		CompletedAt: now,
		UpdatedAt:   now,
	}

	buf := make([]byte, GenerationJobMUS.Size(job))
	n := GenerationJobMUS.Marshal(job, buf)
	require.Equal(t, len(buf), n)

	decoded, m, err := GenerationJobMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, job, decoded)
}

func TestGenerationJobMUS_ZeroTimesStayZero(t *testing.T) {
	job := GenerationJob{ID: "j", Status: JobStatusPending}
	buf := make([]byte, GenerationJobMUS.Size(job))
	GenerationJobMUS.Marshal(job, buf)

	decoded, _, err := GenerationJobMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.True(t, decoded.StartedAt.IsZero())
	assert.True(t, decoded.CompletedAt.IsZero())
	assert.Nil(t, decoded.FinalPayload)
}

func TestVectorEmbeddingMUS_PreservesVectorAndMetadata(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	emb := VectorEmbedding{
		ID:          7,
		CourseID:    "c1",
		ContentID:   "r1/s0/t0",
		ContentType: ContentTypeLesson,
		ContentText: "Goroutines are cheap.",
		ContentHash: IDFromContent("Goroutines are cheap."),
		Vector:      []float32{0.25, -1.5, 0, 3.1415927},
		Title:       "Goroutines",
		Metadata:    map[string]string{"section": "0", "subtopic": "0"},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	buf := make([]byte, VectorEmbeddingMUS.Size(emb))
	VectorEmbeddingMUS.Marshal(emb, buf)

	decoded, _, err := VectorEmbeddingMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, emb, decoded)
}

func TestGenerationRequestMUS_PreservesOverrides(t *testing.T) {
	req := GenerationRequest{
		CourseID:  "c1",
		RoadmapID: "r1",
		Title:     "Go",
		Sections: []SectionSpec{
			{Title: "Basics", Subtopics: []SubtopicSpec{{Title: "Types", Description: "int, string"}}},
		},
		Overrides: map[int]SectionOverride{0: {Instructions: "short", QuizQuestions: 3, Flashcards: 4}},
	}

	buf := make([]byte, GenerationRequestMUS.Size(req))
	GenerationRequestMUS.Marshal(req, buf)

	decoded, _, err := GenerationRequestMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestUnmarshal_TruncatedData(t *testing.T) {
	job := GenerationJob{ID: "job", CourseID: "course", Status: JobStatusPending}
	buf := make([]byte, GenerationJobMUS.Size(job))
	GenerationJobMUS.Marshal(job, buf)

	_, _, err := GenerationJobMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}

func TestVectorEmbeddingMUS_NilCollectionsDecodeEmpty(t *testing.T) {
	emb := VectorEmbedding{ID: 1, CourseID: "c1", ContentType: ContentTypeQuiz, ContentText: "q"}
	buf := make([]byte, VectorEmbeddingMUS.Size(emb))
	VectorEmbeddingMUS.Marshal(emb, buf)

	decoded, _, err := VectorEmbeddingMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Empty(t, decoded.Vector)
	assert.Empty(t, decoded.Metadata)
	assert.True(t, decoded.CreatedAt.IsZero())
	assert.Equal(t, time.Time{}, decoded.UpdatedAt)
}

func TestSkip_ConsumesWholeRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	job := GenerationJob{
		ID:       "j",
		Status:   JobStatusFailed,
		ErrorLog: []ErrorEntry{{Step: "finalize", Error: "disk full", Timestamp: now}},
		FinalPayload: &CourseStructure{
			Sections: []SectionResult{{Title: "A", Subtopics: []SubtopicResult{{Title: "a"}}}},
		},
		CreatedAt: now,
	}
	buf := make([]byte, GenerationJobMUS.Size(job)+IDMUS.Size(9))
	n := GenerationJobMUS.Marshal(job, buf)
	IDMUS.Marshal(9, buf[n:])

	skipped, err := GenerationJobMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)

	id, _, err := IDMUS.Unmarshal(buf[skipped:])
	require.NoError(t, err)
	assert.Equal(t, ID(9), id)
}

func TestTimestamps_DecodeAsUTC(t *testing.T) {
	local := time.Date(2025, 3, 9, 14, 30, 0, 123456789, time.FixedZone("UTC+5", 5*3600))
	entry := ErrorEntry{Step: "s", Error: "e", Timestamp: local}
	buf := make([]byte, ErrorEntryMUS.Size(entry))
	ErrorEntryMUS.Marshal(entry, buf)

	decoded, _, err := ErrorEntryMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, decoded.Timestamp.Location())
	assert.True(t, local.Truncate(time.Microsecond).Equal(decoded.Timestamp))
}
