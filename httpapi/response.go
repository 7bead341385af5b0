package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/queue"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondDomainError maps an error from the core taxonomy onto a status code.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		respondError(c, status, code, errors.New("internal error"))
		return
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "5")
	}
	respondError(c, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidContentType),
		errors.Is(err, core.ErrEmptyContent):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrQueueFull):
		return http.StatusServiceUnavailable, "queue_full"
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, core.ErrEmbeddingDimension):
		return http.StatusUnprocessableEntity, "embedding_dimension"
	case errors.Is(err, core.ErrTerminalJob), errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
