// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/jumper/internal/adapters/repository"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/submission"
	"github.com/okian/jumper/pkg/logger"
	"github.com/okian/jumper/pkg/metrics"
)

// DefaultLeaderboardLimit is the page size callers use when none is given.
const DefaultLeaderboardLimit = 10

// Stats summarizes the backing store.
type Stats struct {
	ScoreCount int
	Backend    string
}

// Service validates submissions and delegates storage to a ScoreStore.
type Service struct {
	store  repository.ScoreStore
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store. The service owns store from here on
// and closes it in Close.
func New(store repository.ScoreStore, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Submit normalizes raw fields and stores the resulting score.
func (s *Service) Submit(ctx context.Context, fields submission.Fields) (model.Score, error) {
	in, err := submission.Normalize(fields)
	if err != nil {
		var verr *submission.ValidationError
		reason := "invalid"
		if errors.As(err, &verr) {
			reason = verr.Field
		}
		metrics.RecordSubmissionRejected(reason)
		s.logger.Debug(ctx, "submission rejected", logger.Error(err))
		return model.Score{}, err
	}

	start := time.Now()
	rec, err := s.store.AddScore(ctx, in)
	if err != nil {
		s.storageFailed(ctx, repository.OpAddScore, start, err)
		return model.Score{}, err
	}
	metrics.RecordStoreOperation(s.store.Backend(), repository.OpAddScore, metrics.Since(start))
	metrics.RecordSubmissionAccepted()

	s.logger.Info(ctx, "score submitted",
		logger.Int64("id", rec.ID),
		logger.String("player", rec.PlayerName),
		logger.Int("score", rec.Score),
		logger.Int("level", rec.Level),
	)
	return rec, nil
}

// Leaderboard returns up to limit scores, highest first.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.Score, error) {
	start := time.Now()
	recs, err := s.store.TopScores(ctx, limit)
	if err != nil {
		s.storageFailed(ctx, repository.OpTopScores, start, err)
		return nil, err
	}
	metrics.RecordStoreOperation(s.store.Backend(), repository.OpTopScores, metrics.Since(start))
	return recs, nil
}

// Stats reports the number of stored scores.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()
	n, err := s.store.ScoreCount(ctx)
	if err != nil {
		s.storageFailed(ctx, repository.OpScoreCount, start, err)
		return Stats{}, err
	}
	metrics.RecordStoreOperation(s.store.Backend(), repository.OpScoreCount, metrics.Since(start))
	metrics.UpdateStoredScores(n)
	return Stats{ScoreCount: n, Backend: s.store.Backend()}, nil
}

// Backend names the store in use.
func (s *Service) Backend() string { return s.store.Backend() }

// Close releases the store.
func (s *Service) Close() error {
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close score store",
			logger.String("backend", s.store.Backend()),
			logger.Error(err),
		)
		return err
	}
	s.logger.Info(context.Background(), "score service stopped")
	return nil
}

func (s *Service) storageFailed(ctx context.Context, op string, start time.Time, err error) {
	backend := s.store.Backend()
	metrics.RecordStoreError(backend, op)
	metrics.RecordErrorLatency("store", op, metrics.Since(start))
	s.logger.Error(ctx, "score store operation failed",
		logger.String("backend", backend),
		logger.String("op", op),
		logger.Bool("unavailable", errors.Is(err, repository.ErrUnavailable)),
		logger.Error(err),
	)
}
