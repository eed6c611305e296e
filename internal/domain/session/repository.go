package session

import (
	"context"
	"time"
)

// EventRepository persists the append-only posture event log and alerts.
type EventRepository interface {
	// InsertPostureEvent appends one event row.
	InsertPostureEvent(ctx context.Context, event PostureEvent) error

	// InsertAlertEvent appends one alert row.
	InsertAlertEvent(ctx context.Context, alert AlertEvent) error

	// ListEventsInRange returns a user's posture events with
	// from <= timestamp <= to, ordered by timestamp ascending.
	ListEventsInRange(ctx context.Context, userID string, from, to time.Time) ([]PostureEvent, error)

	// LatestEventBefore returns the user's latest posture-state event
	// strictly before the given time, or shared.ErrNotFound.
	LatestEventBefore(ctx context.Context, userID string, before time.Time) (PostureEvent, error)

	// CountAlertsInRange returns how many alerts were raised for the user
	// with from <= timestamp <= to.
	CountAlertsInRange(ctx context.Context, userID string, from, to time.Time) (int64, error)

	// DeleteEventsOlderThan removes posture and alert rows older than the
	// cutoff. Returns the number of rows removed.
	DeleteEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsRepository persists the lifetime per-user counters.
type StatsRepository interface {
	// AccumulateStats adds the session counters to the user's totals,
	// creating the row on first flush.
	AccumulateStats(ctx context.Context, userID string, correctSeconds, incorrectSeconds, alerts int64) error

	// GetStats returns the user's lifetime counters (zero-valued stats
	// when nothing was flushed yet).
	GetStats(ctx context.Context, userID string) (UserStats, error)
}
