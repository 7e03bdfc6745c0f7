// Package postgres provides the PostgreSQL-backed score store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/jumper/internal/adapters/repository"
	"github.com/okian/jumper/internal/adapters/repository/migrate"
	"github.com/okian/jumper/internal/adapters/repository/postgres/migrations"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/pkg/logger"
)

// Pool defaults used when Config leaves them unset.
const (
	DefaultMaxConns = 10
	DefaultMinConns = 1

	maxConnLifetime = 30 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// migrationLockKey serializes schema setup across concurrently starting replicas.
const migrationLockKey int64 = 0x6a756d706572

// Config holds database connection settings.
type Config struct {
	URL      string
	MinConns int32
	MaxConns int32
}

// Store implements repository.ScoreStore on a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	log    logger.Logger
	closed atomic.Bool
}

var _ repository.ScoreStore = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the logger used for migration and close messages.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open connects, pings and applies the embedded schema migrations.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, storageErr(repository.OpOpen, fmt.Errorf("parse connection string: %w", err))
	}

	poolCfg.MaxConns = DefaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = DefaultMinConns
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	poolCfg.MaxConnLifetime = maxConnLifetime
	poolCfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, storageErr(repository.OpOpen, fmt.Errorf("create connection pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr(repository.OpOpen, fmt.Errorf("ping database: %w", err))
	}

	s := &Store{pool: pool, log: logger.Get().Named("postgres")}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, storageErr(repository.OpOpen, err)
	}

	s.log.Info(ctx, "postgres score store ready",
		logger.Int("maxConns", int(poolCfg.MaxConns)),
		logger.Int("minConns", int(poolCfg.MinConns)),
	)
	return s, nil
}

// migrate applies each pending migration in its own transaction while holding
// an advisory lock.
func (s *Store) migrate(ctx context.Context) error {
	files, err := migrate.Load(migrations.FS)
	if err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+migrate.Table+` (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range files {
		var applied bool
		err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+migrate.Table+` WHERE name = $1)`, m.Name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if applied {
			continue
		}

		if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+migrate.Table+` (name) VALUES ($1)`, m.Name)
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		s.log.Info(ctx, "applied migration", logger.String("name", m.Name))
	}
	return nil
}

// AddScore inserts one row and returns it with the database-assigned id and created.
func (s *Store) AddScore(ctx context.Context, in model.Submission) (model.Score, error) {
	const op = repository.OpAddScore
	if s.closed.Load() {
		return model.Score{}, storageErr(op, repository.ErrClosed)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `
		INSERT INTO scores (player_name, score, level, game_duration)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created`

	var (
		id      int64
		created time.Time
	)
	if err := tx.QueryRow(ctx, query, in.PlayerName, in.Score, in.Level, in.GameDuration).Scan(&id, &created); err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("insert score: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("commit: %w", err))
	}

	return model.NewScore(id, created.UTC(), in), nil
}

// TopScores returns the highest scores, most recent first among ties.
func (s *Store) TopScores(ctx context.Context, limit int) ([]model.Score, error) {
	const op = repository.OpTopScores
	if limit <= 0 {
		return []model.Score{}, nil
	}
	if s.closed.Load() {
		return nil, storageErr(op, repository.ErrClosed)
	}

	const query = `
		SELECT id, created, player_name, score, level, game_duration
		FROM scores
		ORDER BY score DESC, created DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("query top scores: %w", err))
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Score, error) {
		var rec model.Score
		err := row.Scan(&rec.ID, &rec.Created, &rec.PlayerName, &rec.Score, &rec.Level, &rec.GameDuration)
		rec.Created = rec.Created.UTC()
		return rec, err
	})
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("scan top scores: %w", err))
	}
	if out == nil {
		out = []model.Score{}
	}
	return out, nil
}

// ScoreCount returns the total number of stored rows.
func (s *Store) ScoreCount(ctx context.Context) (int, error) {
	const op = repository.OpScoreCount
	if s.closed.Load() {
		return 0, storageErr(op, repository.ErrClosed)
	}

	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM scores`).Scan(&n); err != nil {
		return 0, storageErr(op, fmt.Errorf("count scores: %w", err))
	}
	return int(n), nil
}

// Backend implements repository.ScoreStore.
func (s *Store) Backend() string { return repository.BackendPostgres }

// AcquiredConns reports pool connections currently in use.
func (s *Store) AcquiredConns() int {
	return int(s.pool.Stat().AcquiredConns())
}

// Close releases the pool. Calling it twice is safe.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.pool.Close()
	s.log.Info(context.Background(), "postgres score store closed")
	return nil
}

func storageErr(op string, err error) error {
	if isUnavailable(err) {
		err = fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return repository.NewStorageError(repository.BackendPostgres, op, err)
}

// isUnavailable reports failures caused by the server or connection rather
// than by the statement.
func isUnavailable(err error) bool {
	if err == nil || errors.Is(err, repository.ErrClosed) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgErr.Code == pgerrcode.TooManyConnections
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.Timeout(err)
}
