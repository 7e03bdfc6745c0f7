package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/pkg/metrics"
)

// DefaultMaxEntries is the cache capacity used when none (or <= 0) is given.
const DefaultMaxEntries = 1000

// Option applies a configuration option to the BoundedScoreCache.
type Option func(*BoundedScoreCache)

// WithMaxEntries sets the cache capacity. Values <= 0 keep the default.
func WithMaxEntries(n int) Option {
	return func(c *BoundedScoreCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now as the source of Created timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *BoundedScoreCache) {
		if now != nil {
			c.now = now
		}
	}
}

// BoundedScoreCache is a fixed-capacity, in-memory ScoreStore.
//
// Records are kept in insertion order. Once maxEntries is reached every insert
// evicts the oldest record, whatever its score. TopScores uses a stable sort on
// score alone, so among equal scores the earlier insert ranks first (the
// durable backends rank the most recent first).
type BoundedScoreCache struct {
	mu sync.RWMutex

	// records is a ring once full: start indexes the oldest record.
	records []model.Score
	start   int

	maxEntries  int
	nextID      int64
	lastCreated time.Time
	now         func() time.Time
}

var _ ScoreStore = (*BoundedScoreCache)(nil)

// NewBoundedScoreCache constructs an empty cache.
func NewBoundedScoreCache(opts ...Option) *BoundedScoreCache {
	c := &BoundedScoreCache{
		maxEntries: DefaultMaxEntries,
		nextID:     1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddScore appends a record and evicts the oldest one when over capacity.
// Append and eviction happen under one lock so IDs and length never tear.
func (c *BoundedScoreCache) AddScore(_ context.Context, in model.Submission) (model.Score, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	created := c.now()
	if created.Before(c.lastCreated) {
		created = c.lastCreated
	}
	c.lastCreated = created

	rec := model.NewScore(c.nextID, created, in)
	c.nextID++

	if len(c.records) < c.maxEntries {
		c.records = append(c.records, rec)
		return rec, nil
	}

	c.records[c.start] = rec
	c.start = (c.start + 1) % c.maxEntries
	metrics.RecordCacheEvictions(1)
	return rec, nil
}

// TopScores returns up to limit surviving records, highest score first.
func (c *BoundedScoreCache) TopScores(_ context.Context, limit int) ([]model.Score, error) {
	if limit <= 0 {
		return []model.Score{}, nil
	}

	ordered := c.snapshot()
	slices.SortStableFunc(ordered, func(a, b model.Score) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit < len(ordered) {
		ordered = ordered[:limit:limit]
	}
	return ordered, nil
}

// ScoreCount returns the number of surviving records.
func (c *BoundedScoreCache) ScoreCount(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

// Backend implements ScoreStore.
func (c *BoundedScoreCache) Backend() string { return BackendMemory }

// MaxEntries reports the configured capacity.
func (c *BoundedScoreCache) MaxEntries() int { return c.maxEntries }

// Close implements ScoreStore. The cache holds no external resources.
func (c *BoundedScoreCache) Close() error { return nil }

// snapshot copies the surviving records in insertion order.
func (c *BoundedScoreCache) snapshot() []model.Score {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Score, 0, len(c.records))
	out = append(out, c.records[c.start:]...)
	out = append(out, c.records[:c.start]...)
	return out
}
