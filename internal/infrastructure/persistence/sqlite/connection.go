// Package sqlite implements persistence on an embedded SQLite database.
// The service is a local desktop companion, so all state lives in a single
// database file next to the application data.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	sqlite "modernc.org/sqlite"

	"github.com/activebreak/activebreak/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds database configuration.
type Config struct {
	// Path is the database file path. ":memory:" opens an in-memory
	// database (used in tests).
	Path string

	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool. SQLite allows one writer at
	// a time; a small pool keeps readers flowing without lock churn.
	MaxOpenConns int

	// MaxIdleConns is the idle pool size.
	MaxIdleConns int
}

// DefaultConfig returns sensible defaults for a desktop deployment.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
}

// DSN builds the driver connection string with the pragmas every
// connection needs: WAL for concurrent readers, foreign keys on, and the
// busy timeout.
func (c Config) DSN() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return "file:" + c.Path + "?" + q.Encode()
}

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Connection wraps the database handle shared by all repositories.
type Connection struct {
	db      *sql.DB
	retrier *retry.Retrier

	mu     sync.Mutex
	closed bool
}

// NewConnection opens the database and verifies it responds.
func NewConnection(ctx context.Context, cfg Config) (*Connection, error) {
	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	conn := &Connection{
		db:      db,
		retrier: retry.DatabaseRetrier(retry.WithRetryIf(IsBusy)),
	}
	if err := conn.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// DB exposes the underlying handle for repositories.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Ping verifies the database responds.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close shuts the pool down. Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic. Transactions that lose the write-lock race are
// retried with backoff, so fn must be safe to re-run.
func (c *Connection) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.runTx(ctx, fn)
	})
}

func (c *Connection) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Querier abstracts *sql.DB and *sql.Tx so repository methods can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// SQLite result codes this package cares about.
const (
	codeBusy                 = 5
	codeLocked               = 6
	codeConstraintUnique     = 2067
	codeConstraintPrimaryKey = 1555
	codeConstraintForeignKey = 787
)

// IsBusy reports whether err is lock contention worth retrying.
func IsBusy(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code() & 0xff
		return code == codeBusy || code == codeLocked
	}
	return false
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure.
func IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == codeConstraintUnique || serr.Code() == codeConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key constraint
// failure.
func IsForeignKeyViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == codeConstraintForeignKey
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// TIME ENCODING
// ══════════════════════════════════════════════════════════════════════════════

// Timestamps are stored as unix milliseconds so range queries stay integer
// comparisons and no driver-specific time formatting is involved.

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
