// Package challenge contains period challenges: per-period goals (complete
// N breaks, earn N XP) whose progress is derived from the user's current
// period score.
package challenge

import (
	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// TargetType names the metric a challenge tracks.
type TargetType string

const (
	// TargetBreaksCompleted counts completed breaks in the period.
	TargetBreaksCompleted TargetType = "breaks_completed"

	// TargetXPGain counts XP earned in the period.
	TargetXPGain TargetType = "xp_gain"
)

// IsValid checks if the target type is known.
func (t TargetType) IsValid() bool {
	return t == TargetBreaksCompleted || t == TargetXPGain
}

// Challenge is a reusable per-period goal definition.
type Challenge struct {
	ID          string
	PeriodType  shared.PeriodType
	Name        string
	Description string
	TargetType  TargetType
	TargetValue int64
	RewardXP    int
	Active      bool
}

// Progress is a challenge paired with a user's derived progress for the
// current period.
type Progress struct {
	Challenge
	ProgressValue int64
	Completed     bool
}

// ProgressFor derives a user's progress on a challenge from their current
// period score. A missing score row means zero progress.
func ProgressFor(ch Challenge, score *game.Score) Progress {
	p := Progress{Challenge: ch}
	if score != nil {
		switch ch.TargetType {
		case TargetXPGain:
			p.ProgressValue = score.TotalScore
		default:
			p.ProgressValue = score.BreaksCount
		}
	}
	if p.ProgressValue > ch.TargetValue {
		p.ProgressValue = ch.TargetValue
	}
	p.Completed = ch.TargetValue > 0 && p.ProgressValue >= ch.TargetValue
	return p
}
