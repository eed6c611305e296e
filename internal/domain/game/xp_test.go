package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestXPForBreak(t *testing.T) {
	tests := []struct {
		name    string
		outcome BreakOutcome
		want    int
	}{
		{"not completed earns nothing", BreakOutcome{Completed: false, QualityFactor: 1}, 0},
		{"base only at zero quality", BreakOutcome{Completed: true, QualityFactor: 0}, 50},
		{"full quality", BreakOutcome{Completed: true, QualityFactor: 1}, 100},
		{"half quality rounds", BreakOutcome{Completed: true, QualityFactor: 0.5}, 75},
		{"quality clamped above 1", BreakOutcome{Completed: true, QualityFactor: 3.2}, 100},
		{"quality clamped below 0", BreakOutcome{Completed: true, QualityFactor: -1}, 50},
		{
			"fast response bonus",
			BreakOutcome{Completed: true, QualityFactor: 1, ResponseTime: durationPtr(4 * time.Second)},
			120,
		},
		{
			"boundary 5s still fast",
			BreakOutcome{Completed: true, QualityFactor: 1, ResponseTime: durationPtr(5 * time.Second)},
			120,
		},
		{
			"medium response bonus",
			BreakOutcome{Completed: true, QualityFactor: 1, ResponseTime: durationPtr(12 * time.Second)},
			110,
		},
		{
			"slow response no bonus",
			BreakOutcome{Completed: true, QualityFactor: 1, ResponseTime: durationPtr(40 * time.Second)},
			100,
		},
		{"no response time no bonus", BreakOutcome{Completed: true, QualityFactor: 1}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XPForBreak(tt.outcome))
		})
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		totalXP int64
		want    int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{-50, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.totalXP), "xp=%d", tt.totalXP)
	}
}

func TestXPForNextLevel(t *testing.T) {
	assert.Equal(t, int64(100), XPForNextLevel(0))
	assert.Equal(t, int64(400), XPForNextLevel(100))
	assert.Equal(t, int64(900), XPForNextLevel(450))
}

func TestProgressAddXP(t *testing.T) {
	p := Progress{UserID: "u", TotalXP: 90, Level: 1}

	next, leveledUp := p.AddXP(20)
	assert.Equal(t, int64(110), next.TotalXP)
	assert.Equal(t, 2, next.Level)
	assert.True(t, leveledUp)

	next2, leveledUp2 := next.AddXP(10)
	assert.Equal(t, 2, next2.Level)
	assert.False(t, leveledUp2)
}

func TestDeltasForBreak(t *testing.T) {
	endedAt := time.Date(2025, 11, 19, 14, 30, 0, 0, time.Local)

	deltas := DeltasForBreak("user-1", 85, endedAt)

	assert.Len(t, deltas, 3)
	byType := map[shared.PeriodType]ScoreDelta{}
	for _, d := range deltas {
		byType[d.PeriodType] = d
		assert.Equal(t, "user-1", d.UserID)
		assert.Equal(t, 85, d.XP)
		assert.Equal(t, endedAt, d.LastBreakAt)
	}

	assert.Equal(t, "2025-11-19", byType[shared.PeriodDaily].PeriodKey)
	assert.Equal(t, "2025-W47", byType[shared.PeriodWeekly].PeriodKey)
	assert.Equal(t, "2025-11", byType[shared.PeriodMonthly].PeriodKey)
}
