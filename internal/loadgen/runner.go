// Package loadgen drives a running score service with fake players and
// checks that the leaderboard it serves stays consistent.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/jumper/pkg/logger"
)

// progressInterval throttles progress logging in verbose mode.
const progressInterval = time.Second

// Run submits cfg.Submissions fake scores and verifies the results.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}

	log := logger.Named("loadgen")
	start := time.Now()
	stats := &Stats{Seed: cfg.Seed}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting score load",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Any("rps", cfg.RPS),
		logger.Any("seed", cfg.Seed),
	)

	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	before, err := c.scoreCount(ctx)
	if err != nil {
		return stats, fmt.Errorf("read score count: %w", err)
	}
	stats.CountBefore = before

	subs := Generate(cfg.Seed, cfg.Submissions)
	stats.Generated = len(subs)
	for _, s := range subs {
		stats.MaxSubmitted = max(stats.MaxSubmitted, s.Score)
	}

	submitAll(ctx, cfg, c, subs, stats, log)

	after, err := c.scoreCount(ctx)
	if err != nil {
		return stats, fmt.Errorf("read score count: %w", err)
	}
	stats.CountAfter = after
	if after != before+stats.Accepted {
		// other clients or cache eviction can explain this; it is reported, not fatal
		stats.CountMismatch = true
		log.Warn(ctx, "score count did not grow by accepted submissions",
			logger.Int("before", before),
			logger.Int("after", after),
			logger.Int("accepted", stats.Accepted),
		)
	}

	top, err := c.topScores(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("read leaderboard: %w", err)
	}
	stats.TopFetched = len(top)
	if len(top) > 0 {
		stats.TopScore = top[0].Score
	}
	stats.Duration = time.Since(start)

	if err := verifyOrdering(top); err != nil {
		return stats, err
	}
	if len(subs) > 0 && stats.Accepted == 0 {
		return stats, ErrNoneSaved
	}

	log.Info(ctx, "score load completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// submitAll fans subs out to cfg.Workers goroutines sharing one limiter.
func submitAll(ctx context.Context, cfg Config, c *client, subs []Submission, stats *Stats, log logger.Logger) {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	limiter := rate.NewLimiter(limit, max(1, int(cfg.RPS)/10))

	var accepted, rejected, throttled, failed, submitted atomic.Int64
	var lastReport atomic.Int64
	lastReport.Store(time.Now().UnixNano())

	work := make(chan Submission, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				if err := limiter.Wait(ctx); err != nil {
					// cancelled: drain so the producer can finish
					continue
				}
				switch c.submit(ctx, s) {
				case submitAccepted:
					accepted.Add(1)
				case submitRejected:
					rejected.Add(1)
				case submitThrottled:
					throttled.Add(1)
				default:
					failed.Add(1)
				}
				n := submitted.Add(1)

				if cfg.Verbose {
					now := time.Now().UnixNano()
					last := lastReport.Load()
					if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
						log.Info(ctx, "progress",
							logger.Int64("submitted", n),
							logger.Int("total", len(subs)),
							logger.Int64("accepted", accepted.Load()),
						)
					}
				}
			}
		}()
	}

	for _, s := range subs {
		if ctx.Err() != nil {
			break
		}
		work <- s
	}
	close(work)
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Rejected = int(rejected.Load())
	stats.Throttled = int(throttled.Load())
	stats.Failed = int(failed.Load())
}

// IsVerificationError reports whether err came from a consistency check
// rather than from reaching the service.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrOrdering) || errors.Is(err, ErrNoneSaved)
}
