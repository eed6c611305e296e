// Package leaderboard contains the period leaderboard read model: ranked
// entries built from per-period scores joined with user identity and
// global progress.
package leaderboard

import (
	"sort"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a 1-based leaderboard position.
type Rank int

// IsValid checks that the rank is positive.
func (r Rank) IsValid() bool {
	return r > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one leaderboard row. Level and TotalXP come from the user's
// global progress via an outer join: a user who scored in the period but
// has no progress row yet carries nil for both.
type Entry struct {
	Rank        Rank
	UserID      string
	FullName    string
	OrgName     string
	Level       *int
	TotalXP     *int64
	PeriodScore int64
	BreaksCount int64
	LastBreakAt time.Time
}

// Ranking is an ordered leaderboard for one period.
type Ranking struct {
	PeriodType shared.PeriodType
	PeriodKey  string
	Entries    []Entry
}

// Sort orders entries by period score descending; ties go to whoever
// reached their score first (earlier last break wins), then assigns
// 1-based ranks.
func (r *Ranking) Sort() {
	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if a.PeriodScore != b.PeriodScore {
			return a.PeriodScore > b.PeriodScore
		}
		return a.LastBreakAt.Before(b.LastBreakAt)
	})
	for i := range r.Entries {
		r.Entries[i].Rank = Rank(i + 1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Limit bounds for leaderboard queries.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// ClampLimit applies the default and maximum row limits.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
