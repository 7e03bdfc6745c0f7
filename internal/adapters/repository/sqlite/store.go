// Package sqlite provides a SQLite-backed score store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/jumper/internal/adapters/repository"
	"github.com/okian/jumper/internal/adapters/repository/migrate"
	"github.com/okian/jumper/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/pkg/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const dsnParams = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Store implements repository.ScoreStore on a SQLite file.
//
// Inserts are serialized so that id and created grow together.
type Store struct {
	db  *sql.DB
	log logger.Logger
	now func() time.Time

	writeMu     sync.Mutex
	lastCreated int64 // unix micros
	closed      atomic.Bool
}

var _ repository.ScoreStore = (*Store)(nil)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now as the source of created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

// Open opens (or creates) the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	const op = repository.OpOpen
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, storageErr(op, errors.New("storage path is required"))
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dsn = filepath.Clean(path)
	}
	db, err := sql.Open("sqlite", dsn+dsnParams)
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("open sqlite db: %w", err))
	}
	if path == MemoryPath {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageErr(op, fmt.Errorf("ping sqlite db: %w", err))
	}

	s := &Store{db: db, log: logger.Get().Named("sqlite"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, storageErr(op, fmt.Errorf("run migrations: %w", err))
	}
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(created), 0) FROM scores`).Scan(&s.lastCreated); err != nil {
		_ = db.Close()
		return nil, storageErr(op, fmt.Errorf("read last created: %w", err))
	}

	s.log.Info(ctx, "sqlite score store ready", logger.String("path", path))
	return s, nil
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	files, err := migrate.Load(migrations.FS)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrate.Table+` (
		name       TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, m := range files {
		var found int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrate.Table+` WHERE name = ?`, m.Name).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+migrate.Table+` (name, applied_at) VALUES (?, ?)`,
			m.Name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// AddScore inserts one row in its own transaction.
func (s *Store) AddScore(ctx context.Context, in model.Submission) (model.Score, error) {
	const op = repository.OpAddScore
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return model.Score{}, storageErr(op, repository.ErrClosed)
	}

	created := max(toMicros(s.now()), s.lastCreated)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scores (created, player_name, score, level, game_duration) VALUES (?, ?, ?, ?, ?)`,
		created, in.PlayerName, in.Score, in.Level, in.GameDuration,
	)
	if err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("insert score: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("read inserted id: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return model.Score{}, storageErr(op, fmt.Errorf("commit: %w", err))
	}

	s.lastCreated = created
	return model.NewScore(id, fromMicros(created), in), nil
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created, player_name, score, level, game_duration
		FROM scores
		ORDER BY score DESC, created DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("query top scores: %w", err))
	}
	defer rows.Close()

	out := make([]model.Score, 0, min(limit, 64))
	for rows.Next() {
		var (
			rec     model.Score
			created int64
		)
		if err := rows.Scan(&rec.ID, &created, &rec.PlayerName, &rec.Score, &rec.Level, &rec.GameDuration); err != nil {
			return nil, storageErr(op, fmt.Errorf("scan score: %w", err))
		}
		rec.Created = fromMicros(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("iterate scores: %w", err))
	}
	return out, nil
}

// ScoreCount returns the total number of stored rows.
func (s *Store) ScoreCount(ctx context.Context) (int, error) {
	const op = repository.OpScoreCount
	if s.closed.Load() {
		return 0, storageErr(op, repository.ErrClosed)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM scores`).Scan(&n); err != nil {
		return 0, storageErr(op, fmt.Errorf("count scores: %w", err))
	}
	return n, nil
}

// Backend implements repository.ScoreStore.
func (s *Store) Backend() string { return repository.BackendSQLite }

// Close closes the database handle. Calling it twice is safe.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func storageErr(op string, err error) error {
	if isUnavailable(err) {
		err = fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return repository.NewStorageError(repository.BackendSQLite, op, err)
}

// isUnavailable reports lock contention and file-level failures.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CANTOPEN,
		sqlite3lib.SQLITE_IOERR, sqlite3lib.SQLITE_FULL:
		return true
	}
	return false
}
