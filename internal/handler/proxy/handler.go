package proxy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/TomasB/proxylookup/internal/data"
	"github.com/TomasB/proxylookup/internal/lookup"
	"github.com/TomasB/proxylookup/internal/metrics"
	"github.com/gin-gonic/gin"
)

// LookupQuery represents the query string of a single lookup.
type LookupQuery struct {
	IP string `form:"ip" binding:"required"`
}

// ErrorResponse represents the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler manages the proxy lookup endpoints.
type Handler struct {
	gateway *lookup.Gateway
	inst    *metrics.Instrumentation
}

// NewHandler creates a new lookup handler. inst may be nil.
func NewHandler(gateway *lookup.Gateway, inst *metrics.Instrumentation) *Handler {
	return &Handler{gateway: gateway, inst: inst}
}

// Lookup handles GET /?ip=<address>
func (h *Handler) Lookup(c *gin.Context) {
	var q LookupQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.inst.ObserveLookup("single", metrics.MALFORMED)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	ip, err := lookup.ParseAddr(q.IP)
	if err != nil {
		h.inst.ObserveLookup("single", metrics.MALFORMED)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid IP address"})
		return
	}

	row, err := h.gateway.Single(ip)
	switch {
	case err == nil:
		h.inst.ObserveLookup("single", metrics.FOUND)
		c.JSON(http.StatusOK, row)
	case errors.Is(err, data.ErrNotFound):
		h.inst.ObserveLookup("single", metrics.NOT_FOUND)
		c.Status(http.StatusNotFound)
	default:
		h.inst.ObserveLookup("single", metrics.ERROR)
		slog.Error("lookup failed", "ip", q.IP, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup failed"})
	}
}

// Batch handles GET /batch?ips=<address>,<address>,...
func (h *Handler) Batch(c *gin.Context) {
	raw, ok := c.GetQuery("ips")
	if !ok {
		h.inst.ObserveLookup("batch", metrics.MALFORMED)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: ips is required"})
		return
	}

	ips, err := lookup.ParseBatch(raw)
	if err != nil {
		h.inst.ObserveLookup("batch", metrics.MALFORMED)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	h.inst.ObserveBatch(len(ips))
	slog.Debug("batch request received", "count", len(ips))

	rows, err := h.gateway.Batch(ips)
	if err != nil {
		h.inst.ObserveLookup("batch", metrics.ERROR)
		slog.Error("batch lookup failed", "count", len(ips), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup failed"})
		return
	}

	for _, row := range rows {
		if row == nil {
			h.inst.ObserveLookup("batch", metrics.NOT_FOUND)
		} else {
			h.inst.ObserveLookup("batch", metrics.FOUND)
		}
	}
	c.JSON(http.StatusOK, rows)
}

// Status handles GET /status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.Status())
}
