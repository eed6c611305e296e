package query

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Global XP, level, and recent break history. Users who never completed a
// break get level 1 with zero XP instead of a not-found error.
// ══════════════════════════════════════════════════════════════════════════════

// defaultBreakHistoryLimit bounds the break history page.
const defaultBreakHistoryLimit = 20

// GetProgressQuery contains the progress request parameters.
type GetProgressQuery struct {
	UserID string

	// HistoryLimit bounds the returned break sessions; 0 uses the default.
	HistoryLimit int
}

// BreakSessionDTO is one break history row.
type BreakSessionDTO struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Completed bool      `json:"completed"`
	XPAwarded int       `json:"xp_awarded"`
}

// GetProgressResult is the progress payload for the API.
type GetProgressResult struct {
	UserID         string            `json:"user_id"`
	TotalXP        int64             `json:"total_xp"`
	Level          int               `json:"level"`
	XPForNextLevel int64             `json:"xp_for_next_level"`
	RecentBreaks   []BreakSessionDTO `json:"recent_breaks"`
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	games game.Repository
	log   *logger.Logger
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(games game.Repository, log *logger.Logger) *GetProgressHandler {
	return &GetProgressHandler{games: games, log: log}
}

// Handle executes the progress query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	if q.UserID == "" {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrInvalidInput, "user_id is required", nil)
	}

	progress, err := h.games.GetProgress(ctx, q.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		progress = game.Progress{UserID: q.UserID, Level: 1}
	}

	limit := q.HistoryLimit
	if limit <= 0 {
		limit = defaultBreakHistoryLimit
	}

	breaks, err := h.games.ListBreakSessions(ctx, q.UserID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]BreakSessionDTO, 0, len(breaks))
	for _, b := range breaks {
		history = append(history, BreakSessionDTO{
			ID:        b.ID,
			StartedAt: b.StartedAt,
			EndedAt:   b.EndedAt,
			Completed: b.Completed,
			XPAwarded: b.XPAwarded,
		})
	}

	return &GetProgressResult{
		UserID:         q.UserID,
		TotalXP:        progress.TotalXP,
		Level:          progress.Level,
		XPForNextLevel: game.XPForNextLevel(progress.TotalXP),
		RecentBreaks:   history,
	}, nil
}
