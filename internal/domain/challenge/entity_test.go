package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

func TestProgressFor(t *testing.T) {
	breaksGoal := Challenge{
		ID:          "ch-1",
		PeriodType:  shared.PeriodDaily,
		TargetType:  TargetBreaksCompleted,
		TargetValue: 5,
		RewardXP:    100,
		Active:      true,
	}
	xpGoal := Challenge{
		ID:          "ch-2",
		PeriodType:  shared.PeriodWeekly,
		TargetType:  TargetXPGain,
		TargetValue: 500,
		RewardXP:    250,
		Active:      true,
	}

	t.Run("no score means zero progress", func(t *testing.T) {
		p := ProgressFor(breaksGoal, nil)
		assert.Equal(t, int64(0), p.ProgressValue)
		assert.False(t, p.Completed)
	})

	t.Run("breaks target tracks breaks count", func(t *testing.T) {
		p := ProgressFor(breaksGoal, &game.Score{BreaksCount: 3, TotalScore: 240})
		assert.Equal(t, int64(3), p.ProgressValue)
		assert.False(t, p.Completed)
	})

	t.Run("xp target tracks period score", func(t *testing.T) {
		p := ProgressFor(xpGoal, &game.Score{BreaksCount: 6, TotalScore: 510})
		assert.Equal(t, int64(500), p.ProgressValue, "progress caps at the target")
		assert.True(t, p.Completed)
	})

	t.Run("exactly at target completes", func(t *testing.T) {
		p := ProgressFor(breaksGoal, &game.Score{BreaksCount: 5})
		assert.Equal(t, int64(5), p.ProgressValue)
		assert.True(t, p.Completed)
	})
}
