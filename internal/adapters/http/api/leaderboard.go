package api

import (
	"bytes"
	"html/template"
	"net/http"
	"sync/atomic"

	service "github.com/okian/jumper/internal/app"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/pkg/logger"
)

var leaderboardTmpl = template.Must(template.New("leaderboard.html").Funcs(template.FuncMap{
	"rank": func(i int) int { return i + 1 },
}).ParseFS(staticFS, "leaderboard.html"))

// LeaderboardHandler renders the top scores as an HTML page.
type LeaderboardHandler struct {
	deps    Dependencies
	touches *atomic.Int64
	log     logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard page handler.
func NewLeaderboardHandler(deps Dependencies, touches *atomic.Int64, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, touches: touches, log: log}
}

type leaderboardPage struct {
	Scores []model.Score
}

// HandleLeaderboardPage handles GET /leaderboard requests.
func (h *LeaderboardHandler) HandleLeaderboardPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	h.touches.Add(1)
	scores, err := h.deps.Leaderboard(r.Context(), service.DefaultLeaderboardLimit)
	if err != nil {
		h.log.Error(r.Context(), "error loading leaderboard page", logger.Error(err))
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := leaderboardTmpl.Execute(&buf, leaderboardPage{Scores: scores}); err != nil {
		h.log.Error(r.Context(), "error rendering leaderboard page", logger.Error(err))
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	h.log.Info(r.Context(), "leaderboard page loaded", logger.Int("scores", len(scores)))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
