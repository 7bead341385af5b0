package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/rag"
)

type handlers struct {
	jobs     Jobs
	progress Progress
	index    Index
	streamer Streamer
	logger   *slog.Logger
}

// GET /healthz
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "queue": h.jobs.Stats()})
}

// POST /api/generations
func (h *handlers) submitGeneration(c *gin.Context) {
	var req core.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	jobID, err := h.jobs.Submit(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

// GET /api/generations/:id
func (h *handlers) getGeneration(c *gin.Context) {
	job, err := h.progress.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// POST /api/generations/:id/cancel
func (h *handlers) cancelGeneration(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// GET /api/sessions/:sessionId/ws?jobId=
func (h *handlers) streamSession(c *gin.Context) {
	h.streamer.ServeWebsocket(c.Writer, c.Request, c.Param("sessionId"), c.Query("jobId"))
}

type searchBody struct {
	Query       string           `json:"query"`
	Limit       int              `json:"limit"`
	ContentType core.ContentType `json:"contentType"`
}

// POST /api/courses/:courseId/search
func (h *handlers) search(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	results, err := h.index.Search(c.Request.Context(), rag.SearchQuery{
		CourseID:    c.Param("courseId"),
		Query:       body.Query,
		Limit:       body.Limit,
		ContentType: body.ContentType,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rag.ToHits(results)})
}

type contextBody struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

// POST /api/courses/:courseId/context
func (h *handlers) assembleContext(c *gin.Context) {
	var body contextBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	text, err := h.index.AssembleContext(c.Request.Context(), c.Param("courseId"), body.Query, body.MaxResults)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": text})
}

// POST /api/courses/:courseId/embeddings
func (h *handlers) storeEmbedding(c *gin.Context) {
	var req rag.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	req.CourseID = c.Param("courseId")
	row, err := h.index.Store(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"embedding": row})
}

// GET /api/courses/:courseId/embeddings[?all=true]
func (h *handlers) listEmbeddings(c *gin.Context) {
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	rows, err := h.index.List(c.Request.Context(), c.Param("courseId"), all)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	if rows == nil {
		rows = []*core.VectorEmbedding{}
	}
	c.JSON(http.StatusOK, gin.H{"embeddings": rows})
}

type updateBody struct {
	ContentText string `json:"contentText"`
}

// PUT /api/embeddings/:id
func (h *handlers) updateEmbedding(c *gin.Context) {
	id, ok := embeddingID(c)
	if !ok {
		return
	}
	var body updateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	row, err := h.index.Update(c.Request.Context(), id, body.ContentText)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"embedding": row})
}

// DELETE /api/embeddings/:id[?soft=true]
func (h *handlers) deleteEmbedding(c *gin.Context) {
	id, ok := embeddingID(c)
	if !ok {
		return
	}
	soft, _ := strconv.ParseBool(c.DefaultQuery("soft", "false"))

	var err error
	if soft {
		err = h.index.Deactivate(c.Request.Context(), id)
	} else {
		err = h.index.Delete(c.Request.Context(), id)
	}
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func embeddingID(c *gin.Context) (core.ID, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_embedding_id", fmt.Errorf("invalid embedding id %q", raw))
		return 0, false
	}
	return core.ID(id), true
}
