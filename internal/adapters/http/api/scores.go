package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/types"
	"github.com/okian/jumper/pkg/logger"
)

// ScoresHandler serves the ranked leaderboard as JSON.
type ScoresHandler struct {
	deps         Dependencies
	touches      *atomic.Int64
	defaultLimit int
	maxLimit     int
	log          logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies, touches *atomic.Int64, defaultLimit, maxLimit int, log logger.Logger) *ScoresHandler {
	return &ScoresHandler{
		deps:         deps,
		touches:      touches,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// HandleGetScores handles GET /api/scores?limit=N requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	limit := h.parseLimit(r.URL.Query().Get("limit"))
	if limit <= 0 {
		writeJSON(w, http.StatusOK, types.ScoresResponse{Scores: []model.Score{}})
		return
	}

	h.touches.Add(1)
	scores, err := h.deps.Leaderboard(r.Context(), limit)
	if err != nil {
		h.log.Error(r.Context(), "error getting scores", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError, types.CategoryInternal, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ScoresResponse{Scores: scores})
}

// parseLimit falls back to the default for missing or non-integer input and
// clamps to the maximum. Non-positive values pass through.
func (h *ScoresHandler) parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return h.defaultLimit
	}
	return min(n, h.maxLimit)
}
