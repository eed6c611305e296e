package query

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/stats"
	"github.com/activebreak/activebreak/pkg/logger"
	"github.com/activebreak/activebreak/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATISTICS QUERY
// Replays the posture event log over a date range: time in each state,
// alerts, a per-day chart series, and the trend against the preceding
// period of equal length.
// ══════════════════════════════════════════════════════════════════════════════

// defaultStatsRangeDays is the window used when no dates are given.
const defaultStatsRangeDays = 7

// GetStatisticsQuery contains the statistics request parameters.
type GetStatisticsQuery struct {
	UserID string

	// From and To bound the range; zero values default to the last
	// defaultStatsRangeDays days ending now.
	From time.Time
	To   time.Time

	// Now anchors the default range; zero means time.Now().
	Now time.Time
}

// Validate validates the query.
func (q GetStatisticsQuery) Validate() error {
	if q.UserID == "" {
		return shared.WrapError("query", "GetStatistics", shared.ErrInvalidInput, "user_id is required", nil)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return shared.WrapError("query", "GetStatistics", shared.ErrInvalidInput, "end date is before start date", nil)
	}
	return nil
}

// PostureEventDTO is one event row for the API, newest first. DisplayTime
// is the timestamp pre-rendered for the history table.
type PostureEventDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	DisplayTime string    `json:"display_time"`
}

// DayBucketDTO is one day of the chart series.
type DayBucketDTO struct {
	Date             string  `json:"date"`
	CorrectMinutes   float64 `json:"correct_minutes"`
	IncorrectMinutes float64 `json:"incorrect_minutes"`
}

// GetStatisticsResult is the statistics bundle for the range.
type GetStatisticsResult struct {
	From             time.Time         `json:"from"`
	To               time.Time         `json:"to"`
	CorrectSeconds   int64             `json:"correct_seconds"`
	IncorrectSeconds int64             `json:"incorrect_seconds"`
	AlertsCount      int64             `json:"alerts_count"`
	Events           []PostureEventDTO `json:"events"`
	DailySeries      []DayBucketDTO    `json:"daily_series"`
	CorrectTrend     string            `json:"correct_trend"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetStatisticsHandler handles the GetStatisticsQuery.
type GetStatisticsHandler struct {
	events session.EventRepository
	log    *logger.Logger
}

// NewGetStatisticsHandler creates a new GetStatisticsHandler.
func NewGetStatisticsHandler(events session.EventRepository, log *logger.Logger) *GetStatisticsHandler {
	return &GetStatisticsHandler{events: events, log: log}
}

// Handle executes the statistics query.
func (h *GetStatisticsHandler) Handle(ctx context.Context, q GetStatisticsQuery) (*GetStatisticsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	from, to := q.From, q.To
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = timeutil.StartOfDay(to.AddDate(0, 0, -(defaultStatsRangeDays - 1)))
	}

	events, err := h.events.ListEventsInRange(ctx, q.UserID, from, to)
	if err != nil {
		return nil, err
	}

	initial := h.initialState(ctx, q.UserID, from)

	correct, incorrect := stats.Durations(events, from, to, initial)

	alerts, err := h.events.CountAlertsInRange(ctx, q.UserID, from, to)
	if err != nil {
		return nil, err
	}

	series := stats.DailySeries(events, from, to, initial)

	trend, err := h.correctTrend(ctx, q.UserID, from, to, correct)
	if err != nil {
		return nil, err
	}

	return &GetStatisticsResult{
		From:             from,
		To:               to,
		CorrectSeconds:   correct,
		IncorrectSeconds: incorrect,
		AlertsCount:      alerts,
		Events:           eventsNewestFirst(events),
		DailySeries:      seriesDTO(series),
		CorrectTrend:     trend,
	}, nil
}

// initialState resolves the posture state entering the range: the latest
// posture event strictly before it, defaulting to correct.
func (h *GetStatisticsHandler) initialState(ctx context.Context, userID string, from time.Time) posture.State {
	prev, err := h.events.LatestEventBefore(ctx, userID, from)
	if err != nil {
		if !shared.IsNotFound(err) {
			h.log.Warn("initial state lookup failed",
				logger.UserID(userID),
				logger.Err(err),
			)
		}
		return posture.StateCorrect
	}
	return prev.Type.State()
}

// correctTrend compares the correct time against the preceding period of
// equal length.
func (h *GetStatisticsHandler) correctTrend(ctx context.Context, userID string, from, to time.Time, curCorrect int64) (string, error) {
	prevFrom, prevTo := timeutil.PreviousRange(from, to)

	prevEvents, err := h.events.ListEventsInRange(ctx, userID, prevFrom, prevTo)
	if err != nil {
		return "", err
	}

	prevInitial := h.initialState(ctx, userID, prevFrom)
	prevCorrect, _ := stats.Durations(prevEvents, prevFrom, prevTo, prevInitial)

	return stats.Trend(float64(curCorrect), float64(prevCorrect)), nil
}

// eventsNewestFirst converts the ascending repository order into the
// newest-first display order.
func eventsNewestFirst(events []session.PostureEvent) []PostureEventDTO {
	dtos := make([]PostureEventDTO, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		dtos = append(dtos, PostureEventDTO{
			ID:          ev.ID,
			Type:        string(ev.Type),
			Reason:      string(ev.Reason),
			Timestamp:   ev.Timestamp,
			DisplayTime: ev.Timestamp.Format(timeutil.FormatDateTime),
		})
	}
	return dtos
}

func seriesDTO(series []stats.DayBucket) []DayBucketDTO {
	dtos := make([]DayBucketDTO, 0, len(series))
	for _, b := range series {
		dtos = append(dtos, DayBucketDTO{
			Date:             b.Date,
			CorrectMinutes:   b.CorrectMinutes(),
			IncorrectMinutes: b.IncorrectMinutes(),
		})
	}
	return dtos
}
