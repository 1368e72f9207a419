package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrUnknownEmoji is returned when a usage event references an emoji that
// is absent from the guild's catalog. The caller logs and drops the event;
// the recorder never fabricates catalog rows.
var ErrUnknownEmoji = errors.New("emoji not present in guild catalog")

// Emoji is one row of the guild's custom emoji catalog.
type Emoji struct {
	ID       int64
	Name     string
	Animated bool
}

// User is one account ever observed in the guild.
type User struct {
	ID          int64
	Name        string
	DisplayName string
}

// UsageEvent is a timestamped fact that a user used an emoji.
type UsageEvent struct {
	UserID  int64
	EmojiID int64
	UsedAt  time.Time
}

// Ranked is one entry of an ordered aggregate result.
type Ranked struct {
	Label string
	Count int64
}

// Store wraps the open connection to one guild's SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the store file at path and ensures the schema
// exists. Reopening a file that already carries the schema is a no-op for
// the DDL: all statements use IF NOT EXISTS.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	// SQLite opens lazily; force the file into existence now so rotation
	// always has something to rename.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store %s: %w", path, err)
	}

	s := New(db, path)
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without touching the schema. Open is
// the usual entry point; New exists for callers that manage the
// connection themselves, such as tests driving error paths.
func New(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS emoji (
			eid      INTEGER PRIMARY KEY,
			name     TEXT NOT NULL,
			animated INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			uid          INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			display_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS emoji_usage (
			uid     INTEGER NOT NULL,
			eid     INTEGER NOT NULL,
			used_at TIMESTAMP NOT NULL,
			FOREIGN KEY (eid) REFERENCES emoji (eid),
			FOREIGN KEY (uid) REFERENCES users (uid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emoji_usage_eid ON emoji_usage (eid)`,
		`CREATE INDEX IF NOT EXISTS idx_emoji_usage_uid ON emoji_usage (uid)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema for %s: %w", s.path, err)
		}
	}
	return nil
}

// Path returns the on-disk location of the store file.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the underlying connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection. The file itself persists.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store %s: %w", s.path, err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error so a mid-operation failure leaves either the pre- or
// fully post-state.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed (%v) after: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
