package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GameRepository implements game.Repository for SQLite.
type GameRepository struct {
	conn *Connection
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(conn *Connection) *GameRepository {
	return &GameRepository{conn: conn}
}

// CompleteBreak applies all writes of one completed break in a single
// transaction: the break row, the three additive period score upserts, and
// the progress upsert.
func (r *GameRepository) CompleteBreak(ctx context.Context, breakSession game.BreakSession, deltas []game.ScoreDelta, progress game.Progress) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO break_sessions (id, user_id, started_at, ended_at, completed, xp_awarded)
			VALUES (?, ?, ?, ?, ?, ?)`,
			breakSession.ID,
			breakSession.UserID,
			toMillis(breakSession.StartedAt),
			toMillis(breakSession.EndedAt),
			boolToInt(breakSession.Completed),
			breakSession.XPAwarded,
		)
		if err != nil {
			return fmt.Errorf("failed to insert break session: %w", err)
		}

		for _, d := range deltas {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO game_scores (user_id, period_type, period_key, total_score, breaks_count, last_break_at)
				VALUES (?, ?, ?, ?, 1, ?)
				ON CONFLICT(user_id, period_type, period_key) DO UPDATE SET
					total_score = game_scores.total_score + excluded.total_score,
					breaks_count = game_scores.breaks_count + 1,
					last_break_at = excluded.last_break_at`,
				d.UserID,
				string(d.PeriodType),
				d.PeriodKey,
				d.XP,
				toMillis(d.LastBreakAt),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert score for %s/%s: %w", d.PeriodType, d.PeriodKey, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_progress (user_id, total_xp, level, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				total_xp = excluded.total_xp,
				level = excluded.level,
				updated_at = excluded.updated_at`,
			progress.UserID,
			progress.TotalXP,
			progress.Level,
			toMillis(progress.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert progress: %w", err)
		}

		return nil
	})
}

// GetScore returns one (user, period type, period key) score row.
func (r *GameRepository) GetScore(ctx context.Context, userID string, periodType shared.PeriodType, periodKey string) (game.Score, error) {
	query := `
		SELECT user_id, period_type, period_key, total_score, breaks_count, last_break_at
		FROM game_scores
		WHERE user_id = ? AND period_type = ? AND period_key = ?
	`

	var s game.Score
	var pt string
	var lastBreakAt int64

	err := r.conn.db.QueryRowContext(ctx, query, userID, string(periodType), periodKey).Scan(
		&s.UserID, &pt, &s.PeriodKey, &s.TotalScore, &s.BreaksCount, &lastBreakAt,
	)
	if IsNoRows(err) {
		return game.Score{}, shared.ErrScoreNotFound
	}
	if err != nil {
		return game.Score{}, fmt.Errorf("failed to get score: %w", err)
	}

	s.PeriodType = shared.PeriodType(pt)
	s.LastBreakAt = fromMillis(lastBreakAt)

	return s, nil
}

// GetProgress returns the user's global XP and level.
func (r *GameRepository) GetProgress(ctx context.Context, userID string) (game.Progress, error) {
	query := `
		SELECT user_id, total_xp, level, updated_at
		FROM user_progress
		WHERE user_id = ?
	`

	var p game.Progress
	var updatedAt int64

	err := r.conn.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.TotalXP, &p.Level, &updatedAt,
	)
	if IsNoRows(err) {
		return game.Progress{}, shared.ErrProgressNotFound
	}
	if err != nil {
		return game.Progress{}, fmt.Errorf("failed to get progress: %w", err)
	}

	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// ListBreakSessions returns the user's break history, newest first.
func (r *GameRepository) ListBreakSessions(ctx context.Context, userID string, limit int) ([]game.BreakSession, error) {
	query := `
		SELECT id, user_id, started_at, ended_at, completed, xp_awarded
		FROM break_sessions
		WHERE user_id = ?
		ORDER BY ended_at DESC, id ASC
		LIMIT ?
	`

	rows, err := r.conn.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list break sessions: %w", err)
	}
	defer rows.Close()

	var sessions []game.BreakSession
	for rows.Next() {
		var b game.BreakSession
		var startedAt, endedAt int64
		var completed int

		if err := rows.Scan(&b.ID, &b.UserID, &startedAt, &endedAt, &completed, &b.XPAwarded); err != nil {
			return nil, fmt.Errorf("failed to scan break session: %w", err)
		}

		b.StartedAt = fromMillis(startedAt)
		b.EndedAt = fromMillis(endedAt)
		b.Completed = completed != 0
		sessions = append(sessions, b)
	}

	return sessions, rows.Err()
}
