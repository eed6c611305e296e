package query

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT EVENTS QUERY
// Streams a user's posture events in a date range as CSV for coaches.
// ══════════════════════════════════════════════════════════════════════════════

// ExportEventsQuery contains the export request parameters.
type ExportEventsQuery struct {
	UserID string
	From   time.Time
	To     time.Time
}

// Validate validates the query.
func (q ExportEventsQuery) Validate() error {
	if q.UserID == "" {
		return shared.WrapError("query", "ExportEvents", shared.ErrInvalidInput, "user_id is required", nil)
	}
	if q.From.IsZero() || q.To.IsZero() {
		return shared.WrapError("query", "ExportEvents", shared.ErrInvalidInput, "from and to dates are required", nil)
	}
	if q.To.Before(q.From) {
		return shared.WrapError("query", "ExportEvents", shared.ErrInvalidInput, "end date is before start date", nil)
	}
	return nil
}

// ExportEventsHandler handles the ExportEventsQuery.
type ExportEventsHandler struct {
	events session.EventRepository
	log    *logger.Logger
}

// NewExportEventsHandler creates a new ExportEventsHandler.
func NewExportEventsHandler(events session.EventRepository, log *logger.Logger) *ExportEventsHandler {
	return &ExportEventsHandler{events: events, log: log}
}

// Handle writes the CSV export to w: a header row, then one row per event
// in ascending time order (RFC 3339 timestamp, event type, reason).
func (h *ExportEventsHandler) Handle(ctx context.Context, q ExportEventsQuery, w io.Writer) error {
	if err := q.Validate(); err != nil {
		return err
	}

	events, err := h.events.ListEventsInRange(ctx, q.UserID, q.From, q.To)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "type", "reason"}); err != nil {
		return err
	}

	for _, ev := range events {
		record := []string{
			ev.Timestamp.UTC().Format(time.RFC3339),
			string(ev.Type),
			string(ev.Reason),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	h.log.Info("events exported",
		logger.UserID(q.UserID),
		logger.Int("rows", len(events)),
	)

	return nil
}
