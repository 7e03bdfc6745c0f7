// Package repository defines the score store contract and its in-memory backend.
package repository

import (
	"context"

	"github.com/okian/jumper/internal/domain/model"
)

// Backend names reported by ScoreStore.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Operation names used in errors, logs and metric labels.
const (
	OpAddScore   = "add_score"
	OpTopScores  = "top_scores"
	OpScoreCount = "score_count"
	OpOpen       = "open"
)

// ScoreStore persists score records and serves ranked reads.
//
// Records are append-only: no implementation updates a stored record, and
// only the bounded cache ever removes one.
type ScoreStore interface {
	// AddScore stores one record and returns it with ID and Created assigned.
	AddScore(ctx context.Context, in model.Submission) (model.Score, error)

	// TopScores returns up to limit records ordered by score descending.
	// Tie order is backend specific. limit <= 0 yields an empty slice.
	TopScores(ctx context.Context, limit int) ([]model.Score, error)

	// ScoreCount returns the number of records currently stored.
	ScoreCount(ctx context.Context) (int, error)

	// Backend names the implementation, e.g. "memory".
	Backend() string

	Close() error
}
