// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	service "github.com/okian/jumper/internal/app"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/submission"
	"github.com/okian/jumper/internal/domain/types"
	"github.com/okian/jumper/pkg/logger"
)

// Limits used when the server is built without options.
const (
	DefaultMaxLimit = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Submit(ctx context.Context, fields submission.Fields) (model.Score, error)
	Leaderboard(ctx context.Context, limit int) ([]model.Score, error)
	Stats(ctx context.Context) (service.Stats, error)
}

// Server wires HTTP routes for the score API.
type Server struct {
	deps Dependencies
	log  logger.Logger

	defaultLimit int
	maxLimit     int
	limiter      *IPRateLimiter

	// storeTouches counts requests that reached the service layer.
	storeTouches atomic.Int64

	healthHandler      *HealthHandler
	metricsHandler     *MetricsHandler
	submitHandler      *SubmitHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLimits sets the default and maximum page size for GET /api/scores.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
	}
}

// WithRateLimiter throttles POST /submit-score per client address.
func WithRateLimiter(l *IPRateLimiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		defaultLimit: service.DefaultLeaderboardLimit,
		maxLimit:     DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	s.defaultLimit = min(s.defaultLimit, s.maxLimit)

	s.healthHandler = NewHealthHandler()
	s.metricsHandler = NewMetricsHandler(deps, &s.storeTouches, s.log)
	s.submitHandler = NewSubmitHandler(deps, &s.storeTouches, s.log)
	s.scoresHandler = NewScoresHandler(deps, &s.storeTouches, s.defaultLimit, s.maxLimit, s.log)
	s.leaderboardHandler = NewLeaderboardHandler(deps, &s.storeTouches, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	var submit http.Handler = http.HandlerFunc(s.submitHandler.HandleSubmit)
	if s.limiter != nil {
		submit = RateLimitMiddleware(s.limiter, "submit_score")(submit)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.metricsHandler.HandleMetrics, "metrics"))
	mux.Handle("/metrics/prometheus", PrometheusHandler())
	mux.HandleFunc("/submit-score", MetricsMiddleware(submit.ServeHTTP, "submit_score"))
	mux.HandleFunc("/api/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleLeaderboardPage, "leaderboard"))
}

// StoreTouches reports how many requests reached the service layer.
func (s *Server) StoreTouches() int64 { return s.storeTouches.Load() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, category string, err error) {
	resp := types.ErrorResponse{Error: message, Category: category}
	if err != nil && category == types.CategoryValidation {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), types.CategoryValidation, nil)
}
