package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Schema migrations are embedded and applied in order at startup. The
// database lives on the user's machine, so there is no external migration
// tooling; the service owns its schema.

type migration struct {
	Version int
	Name    string
	Up      string
}

const migration001Core = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('admin', 'client')),
    full_name     TEXT NOT NULL DEFAULT '',
    org_name      TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id                 TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    sensitivity             INTEGER NOT NULL DEFAULT 5,
    notifications_enabled   INTEGER NOT NULL DEFAULT 1,
    alert_threshold_seconds INTEGER NOT NULL DEFAULT 3,
    break_interval_minutes  INTEGER NOT NULL DEFAULT 30,
    character_theme         TEXT NOT NULL DEFAULT 'capy-classic',
    updated_at              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS posture_events (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    session_id TEXT NOT NULL DEFAULT '',
    type       TEXT NOT NULL CHECK (type IN ('correct', 'incorrect', 'session_start', 'session_end')),
    reason     TEXT NOT NULL DEFAULT '',
    ts         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posture_events_user_ts ON posture_events(user_id, ts);

CREATE TABLE IF NOT EXISTS alert_events (
    id      TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    reason  TEXT NOT NULL DEFAULT '',
    ts      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_events_user_ts ON alert_events(user_id, ts);

CREATE TABLE IF NOT EXISTS user_stats (
    user_id           TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    correct_seconds   INTEGER NOT NULL DEFAULT 0,
    incorrect_seconds INTEGER NOT NULL DEFAULT 0,
    alerts_count      INTEGER NOT NULL DEFAULT 0,
    updated_at        INTEGER NOT NULL
);
`

const migration002Game = `
CREATE TABLE IF NOT EXISTS break_sessions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    started_at INTEGER NOT NULL,
    ended_at   INTEGER NOT NULL,
    completed  INTEGER NOT NULL DEFAULT 0,
    xp_awarded INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_break_sessions_user ON break_sessions(user_id, ended_at);

CREATE TABLE IF NOT EXISTS game_scores (
    user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    period_type   TEXT NOT NULL CHECK (period_type IN ('daily', 'weekly', 'monthly')),
    period_key    TEXT NOT NULL,
    total_score   INTEGER NOT NULL DEFAULT 0,
    breaks_count  INTEGER NOT NULL DEFAULT 0,
    last_break_at INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, period_type, period_key)
);

CREATE INDEX IF NOT EXISTS idx_game_scores_period ON game_scores(period_type, period_key, total_score DESC);

CREATE TABLE IF NOT EXISTS user_progress (
    user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_xp   INTEGER NOT NULL DEFAULT 0,
    level      INTEGER NOT NULL DEFAULT 1,
    updated_at INTEGER NOT NULL
);
`

const migration003Challenges = `
CREATE TABLE IF NOT EXISTS challenges (
    id           TEXT PRIMARY KEY,
    period_type  TEXT NOT NULL CHECK (period_type IN ('daily', 'weekly', 'monthly')),
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    target_type  TEXT NOT NULL CHECK (target_type IN ('breaks_completed', 'xp_gain')),
    target_value INTEGER NOT NULL,
    reward_xp    INTEGER NOT NULL DEFAULT 0,
    active       INTEGER NOT NULL DEFAULT 1
);

INSERT OR IGNORE INTO challenges (id, period_type, name, description, target_type, target_value, reward_xp, active) VALUES
    ('daily-starter',    'daily',   'Warm Up',        'Complete 3 breaks today',            'breaks_completed', 3,    30,  1),
    ('daily-grinder',    'daily',   'Full Stretch',   'Earn 400 XP from breaks today',      'xp_gain',          400,  50,  1),
    ('weekly-regular',   'weekly',  'Steady Habit',   'Complete 15 breaks this week',       'breaks_completed', 15,   150, 1),
    ('weekly-collector', 'weekly',  'XP Collector',   'Earn 2000 XP this week',             'xp_gain',          2000, 200, 1),
    ('monthly-marathon', 'monthly', 'Break Marathon', 'Complete 60 breaks this month',      'breaks_completed', 60,   500, 1);
`

var migrations = []migration{
	{Version: 1, Name: "core_schema", Up: migration001Core},
	{Version: 2, Name: "game_schema", Up: migration002Game},
	{Version: 3, Name: "challenges", Up: migration003Challenges},
}

// Migrator applies pending schema migrations.
type Migrator struct {
	conn *Connection
	log  *logger.Logger
}

// NewMigrator creates a migrator.
func NewMigrator(conn *Connection, log *logger.Logger) *Migrator {
	return &Migrator{conn: conn, log: log}
}

// Run applies every migration newer than the recorded schema version.
func (m *Migrator) Run(ctx context.Context) error {
	if _, err := m.conn.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Name, err)
		}
		m.log.Info("applied migration",
			logger.Int("version", mig.Version),
			logger.String("name", mig.Name),
		)
	}

	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.conn.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (m *Migrator) apply(ctx context.Context, mig migration) error {
	return m.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			mig.Version, mig.Name, toMillis(time.Now()))
		return err
	})
}
