package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Draining is implemented by anything that knows the process is about to be replaced.
type Draining interface {
	Signalled() bool
	Reason() string
}

// Handler manages health check endpoints
type Handler struct {
	draining Draining
}

// NewHandler creates a new health check handler. draining may be nil.
func NewHandler(draining Draining) *Handler {
	return &Handler{draining: draining}
}

// Health is the liveness probe endpoint
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready is the readiness probe endpoint. It fails once a restart has been
// requested so new traffic goes to the replacement process.
// GET /ready
func (h *Handler) Ready(c *gin.Context) {
	if h.draining != nil && h.draining.Signalled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "draining",
			"reason": h.draining.Reason(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
