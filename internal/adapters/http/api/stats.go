package api

import (
	"net/http"
	"sync/atomic"

	"github.com/okian/jumper/internal/domain/types"
	"github.com/okian/jumper/pkg/logger"
)

// MetricsHandler reports score and store-touch counts as JSON.
type MetricsHandler struct {
	deps    Dependencies
	touches *atomic.Int64
	log     logger.Logger
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(deps Dependencies, touches *atomic.Int64, log logger.Logger) *MetricsHandler {
	return &MetricsHandler{deps: deps, touches: touches, log: log}
}

// HandleMetrics handles GET /metrics requests.
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	h.touches.Add(1)
	stats, err := h.deps.Stats(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "error reading score count", logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError, types.CategoryInternal, err)
		return
	}

	writeJSON(w, http.StatusOK, types.MetricsResponse{
		ScoreCount:        stats.ScoreCount,
		DBConnectionCount: h.touches.Load(),
	})
}
