package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/poiesic/syllabus/ai/mock"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/notify"
	"github.com/poiesic/syllabus/progress"
	"github.com/poiesic/syllabus/queue"
	"github.com/poiesic/syllabus/rag"
	"github.com/poiesic/syllabus/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	router  *gin.Engine
	tracker *progress.Tracker
	queue   *queue.Queue
}

// idleRunner never runs anything; submitted jobs stay pending.
var idleRunner = queue.RunnerFunc(func(context.Context, string, func() bool) error { return nil })

func setupAPI(t *testing.T, queueOpts ...queue.Option) *apiEnv {
	t.Helper()
	jobRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		jobRepo.Close()
		backend.Close()
	})

	gateway, err := notify.NewGateway(jobRepo)
	require.NoError(t, err)
	tracker, err := progress.NewTracker(jobRepo, progress.WithPublisher(gateway))
	require.NoError(t, err)
	q, err := queue.NewQueue(tracker, idleRunner, queueOpts...)
	require.NoError(t, err)
	t.Cleanup(q.Stop)
	store, err := rag.NewStore(context.Background(), embRepo, mock.NewMockEmbedderWithDimension(16))
	require.NoError(t, err)

	router, err := NewRouter(Config{Jobs: q, Progress: tracker, Index: store, Streamer: gateway})
	require.NoError(t, err)
	return &apiEnv{router: router, tracker: tracker, queue: q}
}

func (env *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, code, env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
}

func generationBody(roadmapID string) map[string]any {
	return map[string]any{
		"courseId":  "course-1",
		"roadmapId": roadmapID,
		"sessionId": "s1",
		"title":     "Go Concurrency",
		"sections": []map[string]any{{
			"title":     "Basics",
			"subtopics": []map[string]any{{"title": "Goroutines"}},
		}},
		"perSectionOverrides": map[string]any{"0": map[string]any{"quizQuestions": 3}},
	}
}

type jobResponse struct {
	Job core.GenerationJob `json:"job"`
}

func TestNewRouter_RequiresCollaborators(t *testing.T) {
	_, err := NewRouter(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := setupAPI(t, queue.WithWorkers(2), queue.WithCapacity(7))
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Status string      `json:"status"`
		Queue  queue.Stats `json:"queue"`
	}](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Queue.Workers)
	assert.Equal(t, 7, body.Queue.Capacity)
}

func TestSubmitAndGetGeneration(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/api/generations", generationBody("r1"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID := decode[map[string]string](t, rec)["jobId"]
	require.NotEmpty(t, jobID)

	// resubmitting the same roadmap is idempotent
	rec = env.do(t, http.MethodPost, "/api/generations", generationBody("r1"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, jobID, decode[map[string]string](t, rec)["jobId"])

	rec = env.do(t, http.MethodGet, "/api/generations/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[jobResponse](t, rec).Job
	assert.Equal(t, core.JobStatusPending, job.Status)
	assert.Equal(t, "r1", job.RoadmapID)
	assert.Equal(t, 1, job.TotalSubtopics)

	req, err := env.tracker.Request(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, req.Override(0).QuizQuestions)
}

func TestSubmitGeneration_Invalid(t *testing.T) {
	env := setupAPI(t)

	assertError(t, env.do(t, http.MethodPost, "/api/generations", "{not json"), http.StatusBadRequest, "invalid_json")

	body := generationBody("r1")
	delete(body, "sections")
	assertError(t, env.do(t, http.MethodPost, "/api/generations", body), http.StatusBadRequest, "invalid_request")
}

func TestSubmitGeneration_QueueFull(t *testing.T) {
	env := setupAPI(t, queue.WithCapacity(1))

	rec := env.do(t, http.MethodPost, "/api/generations", generationBody("r1"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/generations", generationBody("r2"))
	assertError(t, rec, http.StatusServiceUnavailable, "queue_full")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestGetGeneration_NotFound(t *testing.T) {
	env := setupAPI(t)
	assertError(t, env.do(t, http.MethodGet, "/api/generations/nope", nil), http.StatusNotFound, "not_found")
	assertError(t, env.do(t, http.MethodPost, "/api/generations/nope/cancel", nil), http.StatusNotFound, "not_found")
}

func TestCancelGeneration(t *testing.T) {
	env := setupAPI(t)
	rec := env.do(t, http.MethodPost, "/api/generations", generationBody("r1"))
	jobID := decode[map[string]string](t, rec)["jobId"]

	rec = env.do(t, http.MethodPost, "/api/generations/"+jobID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.JobStatusCancelled, decode[jobResponse](t, rec).Job.Status)

	// cancelling again is a no-op
	rec = env.do(t, http.MethodPost, "/api/generations/"+jobID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.JobStatusCancelled, decode[jobResponse](t, rec).Job.Status)
}

type embeddingResponse struct {
	Embedding core.VectorEmbedding `json:"embedding"`
}

type listResponse struct {
	Embeddings []core.VectorEmbedding `json:"embeddings"`
}

type searchResponse struct {
	Results []rag.Hit `json:"results"`
}

func TestEmbeddingLifecycle(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/api/courses/c1/embeddings", map[string]any{
		"contentType": "lesson",
		"contentText": "Goroutines are lightweight threads managed by the Go runtime.",
		"title":       "Goroutines",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	row := decode[embeddingResponse](t, rec).Embedding
	assert.Equal(t, "c1", row.CourseID)
	assert.True(t, row.IsActive)
	id := fmt.Sprint(row.ID)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/search", map[string]any{"query": "goroutines"})
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[searchResponse](t, rec).Results
	require.Len(t, hits, 1)
	assert.Equal(t, row.ID, hits[0].ID)
	assert.Equal(t, "Goroutines", hits[0].Title)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/context", map[string]any{"query": "goroutines"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["context"], "[1] Lesson: Goroutines")

	rec = env.do(t, http.MethodPut, "/api/embeddings/"+id, map[string]any{"contentText": "Channels connect goroutines."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Channels connect goroutines.", decode[embeddingResponse](t, rec).Embedding.ContentText)

	rec = env.do(t, http.MethodGet, "/api/courses/c1/embeddings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[listResponse](t, rec).Embeddings, 1)

	rec = env.do(t, http.MethodDelete, "/api/embeddings/"+id+"?soft=true", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/courses/c1/embeddings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[listResponse](t, rec).Embeddings, "inactive rows are not listed")

	rec = env.do(t, http.MethodGet, "/api/courses/c1/embeddings?all=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[listResponse](t, rec).Embeddings
	require.Len(t, listed, 1)
	assert.False(t, listed[0].IsActive)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/search", map[string]any{"query": "goroutines"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[searchResponse](t, rec).Results, "inactive rows are not searchable")

	rec = env.do(t, http.MethodPost, "/api/courses/c1/context", map[string]any{"query": "goroutines"})
	assert.Equal(t, rag.NoRelevantContent, decode[map[string]string](t, rec)["context"])

	rec = env.do(t, http.MethodDelete, "/api/embeddings/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assertError(t, env.do(t, http.MethodPut, "/api/embeddings/"+id, map[string]any{"contentText": "x"}), http.StatusNotFound, "not_found")
	assertError(t, env.do(t, http.MethodDelete, "/api/embeddings/"+id, nil), http.StatusNotFound, "not_found")
}

func TestEmbeddings_Invalid(t *testing.T) {
	env := setupAPI(t)

	assertError(t, env.do(t, http.MethodPost, "/api/courses/c1/embeddings", map[string]any{
		"contentType": "podcast",
		"contentText": "text",
	}), http.StatusBadRequest, "invalid_request")

	assertError(t, env.do(t, http.MethodPost, "/api/courses/c1/search", map[string]any{"query": ""}), http.StatusBadRequest, "invalid_request")
	assertError(t, env.do(t, http.MethodPut, "/api/embeddings/abc", map[string]any{"contentText": "x"}), http.StatusBadRequest, "invalid_embedding_id")
	assertError(t, env.do(t, http.MethodDelete, "/api/embeddings/-1", nil), http.StatusBadRequest, "invalid_embedding_id")
}

func TestCORSPreflight(t *testing.T) {
	env := setupAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/generations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionWebsocket(t *testing.T) {
	env := setupAPI(t)
	rec := env.do(t, http.MethodPost, "/api/generations", generationBody("r1"))
	jobID := decode[map[string]string](t, rec)["jobId"]

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/s1/ws?jobId=" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var snapshot core.Event
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, core.EventSnapshot, snapshot.Type)
	assert.Equal(t, jobID, snapshot.JobID)
	assert.Equal(t, core.JobStatusPending, snapshot.Status)

	// live events for the session follow
	rec = env.do(t, http.MethodPost, "/api/generations/"+jobID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled core.Event
	require.NoError(t, conn.ReadJSON(&cancelled))
	assert.Equal(t, core.EventCancelled, cancelled.Type)
}
