package game

import (
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// BREAK SESSION
// ══════════════════════════════════════════════════════════════════════════════

// BreakSession records one guided break, completed or not.
type BreakSession struct {
	ID        string
	UserID    string
	StartedAt time.Time
	EndedAt   time.Time
	Completed bool
	XPAwarded int
}

// Duration returns how long the break lasted.
func (b BreakSession) Duration() time.Duration {
	return b.EndedAt.Sub(b.StartedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD SCORES
// ══════════════════════════════════════════════════════════════════════════════

// Score is the per-user, per-period gamification aggregate. One row per
// (user, period type, period key); break completions add into it.
type Score struct {
	UserID      string
	PeriodType  shared.PeriodType
	PeriodKey   string
	TotalScore  int64
	BreaksCount int64
	LastBreakAt time.Time
}

// ScoreDelta is the additive contribution of one completed break.
type ScoreDelta struct {
	UserID      string
	PeriodType  shared.PeriodType
	PeriodKey   string
	XP          int
	LastBreakAt time.Time
}

// PeriodKeyFor returns the period key for a period type at a point in time.
func PeriodKeyFor(periodType shared.PeriodType, t time.Time) string {
	switch periodType {
	case shared.PeriodWeekly:
		return timeutil.WeekKey(t)
	case shared.PeriodMonthly:
		return timeutil.MonthKey(t)
	default:
		return timeutil.DayKey(t)
	}
}

// DeltasForBreak builds the three period score deltas a completed break
// contributes, all keyed from the break's end time in local time.
func DeltasForBreak(userID string, xp int, endedAt time.Time) []ScoreDelta {
	deltas := make([]ScoreDelta, 0, 3)
	for _, pt := range shared.AllPeriodTypes() {
		deltas = append(deltas, ScoreDelta{
			UserID:      userID,
			PeriodType:  pt,
			PeriodKey:   PeriodKeyFor(pt, endedAt),
			XP:          xp,
			LastBreakAt: endedAt,
		})
	}
	return deltas
}

// ══════════════════════════════════════════════════════════════════════════════
// GLOBAL PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// Progress is the user's global XP total and derived level.
type Progress struct {
	UserID    string
	TotalXP   int64
	Level     int
	UpdatedAt time.Time
}

// AddXP returns the progress after gaining xp, with the level recomputed,
// and whether the gain crossed a level boundary.
func (p Progress) AddXP(xp int) (Progress, bool) {
	next := p
	next.TotalXP += int64(xp)
	next.Level = LevelForXP(next.TotalXP)
	return next, next.Level > p.Level
}
