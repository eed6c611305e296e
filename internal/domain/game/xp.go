// Package game implements the gamification rules: XP awarded for completed
// guided breaks, level progression, and the per-period score aggregates
// that feed the leaderboard.
package game

import (
	"math"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP RULES
// ══════════════════════════════════════════════════════════════════════════════

// XP award constants.
const (
	// baseXP is granted for any completed break.
	baseXP = 50

	// qualityXPMax scales with how well the break exercise was performed.
	qualityXPMax = 50

	// Engagement bonus tiers for reacting quickly to the break prompt.
	engagementFastBonus = 20
	engagementFastLimit = 5 * time.Second
	engagementOKBonus   = 10
	engagementOKLimit   = 15 * time.Second
)

// BreakOutcome describes a finished guided break for XP scoring.
type BreakOutcome struct {
	Completed bool

	// QualityFactor in [0,1]; out-of-range values are clamped.
	QualityFactor float64

	// ResponseTime is how long the user took to start the break after the
	// prompt. Nil when unknown (no engagement bonus).
	ResponseTime *time.Duration
}

// XPForBreak computes the XP award for a break outcome.
// Skipped or abandoned breaks earn nothing. A streak bonus slot exists in
// the product design but is not awarded yet.
func XPForBreak(outcome BreakOutcome) int {
	if !outcome.Completed {
		return 0
	}

	quality := outcome.QualityFactor
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}

	xp := baseXP + int(math.Round(qualityXPMax*quality))

	if outcome.ResponseTime != nil {
		switch {
		case *outcome.ResponseTime <= engagementFastLimit:
			xp += engagementFastBonus
		case *outcome.ResponseTime <= engagementOKLimit:
			xp += engagementOKBonus
		}
	}

	return xp
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL RULES
// ══════════════════════════════════════════════════════════════════════════════

// LevelForXP converts total XP to a level: level = floor(sqrt(xp/100)) + 1,
// never below 1. Levels come thick at the start (100 XP to level 2) and
// slow down quadratically.
func LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		totalXP = 0
	}
	level := int(math.Sqrt(float64(totalXP)/100)) + 1
	if level < 1 {
		level = 1
	}
	return level
}

// XPForNextLevel returns the total XP needed to reach the next level from
// the given total.
func XPForNextLevel(totalXP int64) int64 {
	level := LevelForXP(totalXP)
	next := int64(level) * int64(level) * 100
	return next
}
