// Package types contains the wire shapes shared by the HTTP API and its clients.
package types

import "github.com/okian/jumper/internal/domain/model"

// Error categories reported to clients.
const (
	CategoryValidation = "validation"
	CategoryInternal   = "internal"
	CategoryRateLimit  = "rate_limited"
)

// SubmitResponse acknowledges a stored submission.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is returned for any failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
	Detail   string `json:"detail,omitempty"`
}

// ScoresResponse wraps a ranked leaderboard page.
type ScoresResponse struct {
	Scores []model.Score `json:"scores"`
}

// MetricsResponse reports basic counts.
type MetricsResponse struct {
	ScoreCount        int   `json:"score_count"`
	DBConnectionCount int64 `json:"db_connection_count"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Result string `json:"result"`
}
