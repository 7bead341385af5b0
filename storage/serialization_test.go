package storage

import (
	"testing"
	"time"

	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshal_EmptyData(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalJob([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalEmbedding([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRequest([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalJob(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	job := &core.GenerationJob{
		ID:         "job-1",
		CourseID:   "c1",
		RoadmapID:  "r1",
		Status:     core.JobStatusProcessing,
		ErrorLog:   []core.ErrorEntry{{Step: "generate_quiz", Error: "rate limited", Timestamp: now}},
		RetryCount: 1,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	decoded, err := UnmarshalJob(MarshalJob(job))
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}

func TestMarshalEmbedding(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	emb := &core.VectorEmbedding{
		ID:          3,
		CourseID:    "c1",
		ContentType: core.ContentTypeQuiz,
		ContentText: "What is a channel?",
		Vector:      []float32{1, 0, -1},
		Metadata:    map[string]string{"section": "2"},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	decoded, err := UnmarshalEmbedding(MarshalEmbedding(emb))
	require.NoError(t, err)
	assert.Equal(t, emb, decoded)
}
