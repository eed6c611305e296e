// Package jobs contains the background jobs run by the scheduler.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/activebreak/activebreak/internal/domain/session"
)

// DefaultRetentionDays is how long posture and alert events are kept when
// no retention is configured.
const DefaultRetentionDays = 180

// PruneEvents deletes posture and alert events older than the retention
// window. The event log is append-only and grows at up to one row per
// posture flip, so it needs periodic trimming.
type PruneEvents struct {
	events    session.EventRepository
	retention time.Duration
	logger    *slog.Logger
}

// NewPruneEvents creates the pruning job. retentionDays <= 0 uses the
// default.
func NewPruneEvents(events session.EventRepository, retentionDays int, logger *slog.Logger) *PruneEvents {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneEvents{
		events:    events,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
	}
}

// Name implements scheduler.Job.
func (j *PruneEvents) Name() string { return "prune_events" }

// Description implements scheduler.Job.
func (j *PruneEvents) Description() string {
	return fmt.Sprintf("delete posture and alert events older than %s", j.retention)
}

// Run implements scheduler.Job.
func (j *PruneEvents) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retention)

	removed, err := j.events.DeleteEventsOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune events: %w", err)
	}

	j.logger.Info("event log pruned",
		"cutoff", cutoff.Format(time.RFC3339),
		"rows_removed", removed,
	)
	return nil
}
