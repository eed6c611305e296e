package query

import (
	"context"
	"errors"
	"time"

	"github.com/activebreak/activebreak/internal/domain/challenge"
	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVE CHALLENGES QUERY
// Pairs the active challenge definitions for a period type with the user's
// derived progress from their current period score.
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveChallengesQuery contains the challenges request parameters.
type GetActiveChallengesQuery struct {
	UserID string

	// PeriodType is daily, weekly, or monthly; empty defaults to daily.
	PeriodType string

	// Now anchors the current period key; zero means time.Now().
	Now time.Time
}

// ChallengeProgressDTO is one challenge with the user's progress.
type ChallengeProgressDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PeriodType    string `json:"period_type"`
	TargetType    string `json:"target_type"`
	TargetValue   int64  `json:"target_value"`
	RewardXP      int    `json:"reward_xp"`
	ProgressValue int64  `json:"progress_value"`
	Completed     bool   `json:"completed"`
}

// GetActiveChallengesResult contains the challenge list.
type GetActiveChallengesResult struct {
	PeriodKey  string                 `json:"period_key"`
	Challenges []ChallengeProgressDTO `json:"challenges"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveChallengesHandler handles the GetActiveChallengesQuery.
type GetActiveChallengesHandler struct {
	challenges challenge.Repository
	games      game.Repository
	log        *logger.Logger
}

// NewGetActiveChallengesHandler creates a new GetActiveChallengesHandler.
func NewGetActiveChallengesHandler(challenges challenge.Repository, games game.Repository, log *logger.Logger) *GetActiveChallengesHandler {
	return &GetActiveChallengesHandler{challenges: challenges, games: games, log: log}
}

// Handle executes the active challenges query.
func (h *GetActiveChallengesHandler) Handle(ctx context.Context, q GetActiveChallengesQuery) (*GetActiveChallengesResult, error) {
	if q.UserID == "" {
		return nil, shared.WrapError("query", "GetActiveChallenges", shared.ErrInvalidInput, "user_id is required", nil)
	}

	periodType, err := shared.ParsePeriodType(q.PeriodType)
	if err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	periodKey := game.PeriodKeyFor(periodType, now)

	defs, err := h.challenges.ListActive(ctx, periodType)
	if err != nil {
		return nil, err
	}

	// No score row yet means zero progress on every challenge.
	var score *game.Score
	s, err := h.games.GetScore(ctx, q.UserID, periodType, periodKey)
	switch {
	case err == nil:
		score = &s
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	dtos := make([]ChallengeProgressDTO, 0, len(defs))
	for _, def := range defs {
		p := challenge.ProgressFor(def, score)
		dtos = append(dtos, ChallengeProgressDTO{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			PeriodType:    p.PeriodType.String(),
			TargetType:    string(p.TargetType),
			TargetValue:   p.TargetValue,
			RewardXP:      p.RewardXP,
			ProgressValue: p.ProgressValue,
			Completed:     p.Completed,
		})
	}

	return &GetActiveChallengesResult{
		PeriodKey:  periodKey,
		Challenges: dtos,
	}, nil
}
