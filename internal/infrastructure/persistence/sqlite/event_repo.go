package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EventRepository implements session.EventRepository for SQLite.
type EventRepository struct {
	conn *Connection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(conn *Connection) *EventRepository {
	return &EventRepository{conn: conn}
}

// InsertPostureEvent appends one event to the log.
func (r *EventRepository) InsertPostureEvent(ctx context.Context, event session.PostureEvent) error {
	query := `
		INSERT INTO posture_events (id, user_id, session_id, type, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.conn.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.SessionID,
		string(event.Type),
		string(event.Reason),
		toMillis(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert posture event: %w", err)
	}

	return nil
}

// InsertAlertEvent appends one alert row.
func (r *EventRepository) InsertAlertEvent(ctx context.Context, alert session.AlertEvent) error {
	query := `
		INSERT INTO alert_events (id, user_id, reason, ts)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.conn.db.ExecContext(ctx, query,
		alert.ID,
		alert.UserID,
		string(alert.Reason),
		toMillis(alert.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}

	return nil
}

// ListEventsInRange returns a user's posture events inside [from, to],
// oldest first.
func (r *EventRepository) ListEventsInRange(ctx context.Context, userID string, from, to time.Time) ([]session.PostureEvent, error) {
	query := `
		SELECT id, user_id, session_id, type, reason, ts
		FROM posture_events
		WHERE user_id = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC, id ASC
	`

	rows, err := r.conn.db.QueryContext(ctx, query, userID, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list posture events: %w", err)
	}
	defer rows.Close()

	var events []session.PostureEvent
	for rows.Next() {
		var e session.PostureEvent
		var eventType, reason string
		var ts int64

		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &eventType, &reason, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan posture event: %w", err)
		}

		e.Type = session.EventType(eventType)
		e.Reason = posture.FailureReason(reason)
		e.Timestamp = fromMillis(ts)
		events = append(events, e)
	}

	return events, rows.Err()
}

// LatestEventBefore returns the newest posture-state event strictly before
// the given time. Boundary markers do not count; the caller wants the state
// the user was in when the range opened.
func (r *EventRepository) LatestEventBefore(ctx context.Context, userID string, before time.Time) (session.PostureEvent, error) {
	query := `
		SELECT id, user_id, session_id, type, reason, ts
		FROM posture_events
		WHERE user_id = ? AND ts < ? AND type IN ('correct', 'incorrect')
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`

	var e session.PostureEvent
	var eventType, reason string
	var ts int64

	err := r.conn.db.QueryRowContext(ctx, query, userID, toMillis(before)).Scan(
		&e.ID, &e.UserID, &e.SessionID, &eventType, &reason, &ts,
	)
	if IsNoRows(err) {
		return session.PostureEvent{}, shared.ErrSessionNotFound
	}
	if err != nil {
		return session.PostureEvent{}, fmt.Errorf("failed to get latest event: %w", err)
	}

	e.Type = session.EventType(eventType)
	e.Reason = posture.FailureReason(reason)
	e.Timestamp = fromMillis(ts)

	return e, nil
}

// CountAlertsInRange returns the number of alerts raised inside [from, to].
func (r *EventRepository) CountAlertsInRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.conn.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alert_events WHERE user_id = ? AND ts >= ? AND ts <= ?`,
		userID, toMillis(from), toMillis(to),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// DeleteEventsOlderThan prunes posture and alert rows older than the
// cutoff. Lifetime counters in user_stats are unaffected.
func (r *EventRepository) DeleteEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64

	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM posture_events WHERE ts < ?`, toMillis(cutoff))
		if err != nil {
			return fmt.Errorf("failed to prune posture events: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed += n

		res, err = tx.ExecContext(ctx, `DELETE FROM alert_events WHERE ts < ?`, toMillis(cutoff))
		if err != nil {
			return fmt.Errorf("failed to prune alert events: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		removed += n

		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository implements session.StatsRepository for SQLite.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// AccumulateStats adds session counters into the user's lifetime totals.
func (r *StatsRepository) AccumulateStats(ctx context.Context, userID string, correctSeconds, incorrectSeconds, alerts int64) error {
	query := `
		INSERT INTO user_stats (user_id, correct_seconds, incorrect_seconds, alerts_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			correct_seconds = user_stats.correct_seconds + excluded.correct_seconds,
			incorrect_seconds = user_stats.incorrect_seconds + excluded.incorrect_seconds,
			alerts_count = user_stats.alerts_count + excluded.alerts_count,
			updated_at = excluded.updated_at
	`

	_, err := r.conn.db.ExecContext(ctx, query,
		userID, correctSeconds, incorrectSeconds, alerts, toMillis(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to accumulate stats: %w", err)
	}

	return nil
}

// GetStats returns the user's lifetime counters. A user who never ended a
// session gets zero-valued stats, not an error.
func (r *StatsRepository) GetStats(ctx context.Context, userID string) (session.UserStats, error) {
	query := `
		SELECT user_id, correct_seconds, incorrect_seconds, alerts_count, updated_at
		FROM user_stats
		WHERE user_id = ?
	`

	var s session.UserStats
	var updatedAt int64

	err := r.conn.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.CorrectSeconds, &s.IncorrectSeconds, &s.AlertsCount, &updatedAt,
	)
	if IsNoRows(err) {
		return session.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return session.UserStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	s.UpdatedAt = fromMillis(updatedAt)
	return s, nil
}
