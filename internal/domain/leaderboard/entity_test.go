package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

func TestRankingSort(t *testing.T) {
	base := time.Date(2025, 11, 19, 10, 0, 0, 0, time.Local)

	r := Ranking{
		PeriodType: shared.PeriodDaily,
		PeriodKey:  "2025-11-19",
		Entries: []Entry{
			{UserID: "late-tie", PeriodScore: 200, LastBreakAt: base.Add(2 * time.Hour)},
			{UserID: "low", PeriodScore: 50, LastBreakAt: base},
			{UserID: "top", PeriodScore: 300, LastBreakAt: base.Add(time.Hour)},
			{UserID: "early-tie", PeriodScore: 200, LastBreakAt: base},
		},
	}

	r.Sort()

	order := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		order[i] = e.UserID
		assert.Equal(t, Rank(i+1), e.Rank)
	}

	// Ties break toward the earlier last break.
	assert.Equal(t, []string{"top", "early-tie", "late-tie", "low"}, order)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-5))
	assert.Equal(t, 25, ClampLimit(25))
	assert.Equal(t, MaxLimit, ClampLimit(500))
}
