package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/queue"
	"github.com/poiesic/syllabus/rag"
)

// Jobs submits and cancels generation jobs.
type Jobs interface {
	Submit(ctx context.Context, req *core.GenerationRequest) (string, error)
	Cancel(ctx context.Context, jobID string) (*core.GenerationJob, error)
	Stats() queue.Stats
}

// Progress reads job state.
type Progress interface {
	Snapshot(ctx context.Context, jobID string) (*core.GenerationJob, error)
}

// Index is the vector store surface served over HTTP.
type Index interface {
	Search(ctx context.Context, query rag.SearchQuery) ([]*core.SearchResult, error)
	AssembleContext(ctx context.Context, courseID, question string, maxResults int) (string, error)
	Store(ctx context.Context, req rag.StoreRequest) (*core.VectorEmbedding, error)
	List(ctx context.Context, courseID string, includeInactive bool) ([]*core.VectorEmbedding, error)
	Update(ctx context.Context, id core.ID, newText string) (*core.VectorEmbedding, error)
	Deactivate(ctx context.Context, id core.ID) error
	Delete(ctx context.Context, id core.ID) error
}

// Streamer upgrades a request to a push connection for a session.
type Streamer interface {
	ServeWebsocket(w http.ResponseWriter, r *http.Request, sessionID, jobID string)
}

// Config wires the router to its collaborators.
type Config struct {
	Jobs     Jobs
	Progress Progress
	Index    Index
	Streamer Streamer

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string

	Logger *slog.Logger
}

// NewRouter builds the gin engine serving the API.
func NewRouter(cfg Config) (*gin.Engine, error) {
	switch {
	case cfg.Jobs == nil:
		return nil, errors.New("jobs handler required")
	case cfg.Progress == nil:
		return nil, errors.New("progress reader required")
	case cfg.Index == nil:
		return nil, errors.New("index required")
	case cfg.Streamer == nil:
		return nil, errors.New("streamer required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "httpapi")

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	h := &handlers{
		jobs:     cfg.Jobs,
		progress: cfg.Progress,
		index:    cfg.Index,
		streamer: cfg.Streamer,
		logger:   logger,
	}

	router.GET("/healthz", h.health)

	api := router.Group("/api")
	{
		api.POST("/generations", h.submitGeneration)
		api.GET("/generations/:id", h.getGeneration)
		api.POST("/generations/:id/cancel", h.cancelGeneration)

		api.GET("/sessions/:sessionId/ws", h.streamSession)

		api.POST("/courses/:courseId/search", h.search)
		api.POST("/courses/:courseId/context", h.assembleContext)
		api.POST("/courses/:courseId/embeddings", h.storeEmbedding)
		api.GET("/courses/:courseId/embeddings", h.listEmbeddings)

		api.PUT("/embeddings/:id", h.updateEmbedding)
		api.DELETE("/embeddings/:id", h.deleteEmbedding)
	}

	return router, nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
