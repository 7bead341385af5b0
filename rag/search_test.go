package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/syllabus/ai/mock"
	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMonitor struct {
	started   bool
	dimension int
	scored    int
	finished  int
}

func (m *recordingMonitor) Start(_, _ string)                            { m.started = true }
func (m *recordingMonitor) AfterQueryEmbedding(dim int)                  { m.dimension = dim }
func (m *recordingMonitor) AfterSimilaritySearch(s []*core.SearchResult) { m.scored = len(s) }
func (m *recordingMonitor) Finish(r []*core.SearchResult)                { m.finished = len(r) }

func seedCourse(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for _, req := range []StoreRequest{
		{CourseID: "go", ContentID: "a", ContentType: core.ContentTypeLesson, ContentText: "channels", Title: "Channels"},
		{CourseID: "go", ContentID: "b", ContentType: core.ContentTypeLesson, ContentText: "mutexes", Title: "Mutexes"},
		{CourseID: "go", ContentID: "c", ContentType: core.ContentTypeQuiz, ContentText: "quiz on channels", Title: "Channel Quiz"},
		{CourseID: "rust", ContentID: "a", ContentType: core.ContentTypeLesson, ContentText: "ownership", Title: "Ownership"},
	} {
		_, err := store.Store(ctx, req)
		require.NoError(t, err)
	}
}

func searchTable() vectorTable {
	return vectorTable{
		"channels":             {1, 0, 0},
		"mutexes":              {0, 1, 0},
		"quiz on channels":     {0.8, 0.6, 0},
		"ownership":            {1, 0, 0},
		"how do channels work": {1, 0, 0},
	}
}

func TestSearch_RanksByCosineWithinCourse(t *testing.T) {
	monitor := &recordingMonitor{}
	store, _ := setupStore(t, searchTable().embedder(3), WithMonitor(monitor))
	seedCourse(t, store)

	results, err := store.Search(context.Background(), SearchQuery{CourseID: "go", Query: "how do channels work"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Channels", results[0].Embedding.Title)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "Channel Quiz", results[1].Embedding.Title)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)
	assert.Equal(t, "Mutexes", results[2].Embedding.Title)

	for _, r := range results {
		assert.Equal(t, "go", r.Embedding.CourseID)
	}

	assert.True(t, monitor.started)
	assert.Equal(t, 3, monitor.dimension)
	assert.Equal(t, 3, monitor.finished)
}

func TestSearch_FiltersAndLimits(t *testing.T) {
	store, _ := setupStore(t, searchTable().embedder(3))
	seedCourse(t, store)
	ctx := context.Background()

	results, err := store.Search(ctx, SearchQuery{CourseID: "go", Query: "how do channels work", Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Channels", results[0].Embedding.Title)

	results, err = store.Search(ctx, SearchQuery{CourseID: "go", Query: "how do channels work", ContentType: core.ContentTypeQuiz})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ContentTypeQuiz, results[0].Embedding.ContentType)

	results, err = store.Search(ctx, SearchQuery{CourseID: "empty", Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ExcludesInactiveRows(t *testing.T) {
	store, repo := setupStore(t, searchTable().embedder(3))
	seedCourse(t, store)
	ctx := context.Background()

	row, err := repo.FindByContentID(ctx, "go", "a")
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, row.ID))

	results, err := store.Search(ctx, SearchQuery{CourseID: "go", Query: "how do channels work"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, row.ID, r.Embedding.ID)
	}
}

func TestSearch_RejectsInvalidQueries(t *testing.T) {
	store, _ := setupStore(t, mock.NewMockEmbedderWithDimension(3))
	ctx := context.Background()

	_, err := store.Search(ctx, SearchQuery{Query: "q"})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = store.Search(ctx, SearchQuery{CourseID: "go"})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = store.Search(ctx, SearchQuery{CourseID: "go", Query: "q", Limit: -1})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	store, _ := setupStore(t, embedder)
	ctx := context.Background()

	_, err := store.Store(ctx, lessonRequest("go", "a", "channels"))
	require.NoError(t, err)

	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return mock.GenerateDeterministicVector(text, 5), nil
	}
	_, err = store.Search(ctx, SearchQuery{CourseID: "go", Query: "channels"})
	var dimErr *core.EmbeddingDimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 5, dimErr.Actual)
}

func TestToHits(t *testing.T) {
	results := []*core.SearchResult{{
		Embedding: &core.VectorEmbedding{
			ID:          7,
			ContentText: "body",
			Title:       "T",
			Description: "D",
			ContentType: core.ContentTypeLesson,
			Metadata:    map[string]string{"k": "v"},
		},
		Score: 0.5,
	}}

	hits := ToHits(results)
	require.Len(t, hits, 1)
	assert.Equal(t, Hit{
		ID:              7,
		Content:         "body",
		Title:           "T",
		Description:     "D",
		ContentType:     core.ContentTypeLesson,
		SimilarityScore: 0.5,
		Metadata:        map[string]string{"k": "v"},
	}, hits[0])
}

func TestAssembleContext(t *testing.T) {
	store, _ := setupStore(t, searchTable().embedder(3))
	seedCourse(t, store)
	ctx := context.Background()

	text, err := store.AssembleContext(ctx, "go", "how do channels work", 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "[1] Lesson: Channels (relevance 100%)\nchannels"), text)
	assert.Contains(t, text, "[2] Quiz: Channel Quiz (relevance 80%)")
	assert.NotContains(t, text, "[3]")

	empty, err := store.AssembleContext(ctx, "nothing-here", "how do channels work", 0)
	require.NoError(t, err)
	assert.Equal(t, NoRelevantContent, empty)
}

func TestFormatContext_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("é", maxContextRunes+50)
	text := FormatContext([]*core.SearchResult{{
		Embedding: &core.VectorEmbedding{ContentType: core.ContentTypeSection, ContentText: long, Description: "overview"},
		Score:     -0.2,
	}})

	assert.True(t, strings.HasPrefix(text, "[1] Section: Untitled (relevance 0%)\noverview\n"))
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.Equal(t, maxContextRunes, strings.Count(text, "é"))
}
