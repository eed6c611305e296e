package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE BREAK COMMAND
// Records a finished guided break: XP award, the three period score
// aggregates, and global progress, all in one transaction.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteBreakCommand describes a finished break reported by the UI.
type CompleteBreakCommand struct {
	UserID    string
	StartedAt time.Time
	EndedAt   time.Time

	// Completed is false for skipped or abandoned breaks; they are still
	// recorded but earn no XP.
	Completed bool

	// QualityFactor in [0,1], from the exercise tracking in the UI.
	QualityFactor float64

	// ResponseTime is how long the user took to start the break after the
	// prompt. Nil when the break was started manually.
	ResponseTime *time.Duration
}

// Validate validates the command.
func (c CompleteBreakCommand) Validate() error {
	if c.UserID == "" {
		return shared.WrapError("command", "CompleteBreak", shared.ErrInvalidInput, "user_id is required", nil)
	}
	if err := shared.ValidateTimestamp(c.EndedAt); err != nil {
		return err
	}
	if c.StartedAt.IsZero() || c.EndedAt.Before(c.StartedAt) {
		return shared.WrapError("command", "CompleteBreak", shared.ErrInvalidInput, "break times are inconsistent", nil)
	}
	return nil
}

// CompleteBreakResult contains the XP outcome of the break.
type CompleteBreakResult struct {
	BreakID   string `json:"break_id"`
	XPAwarded int    `json:"xp_awarded"`
	TotalXP   int64  `json:"total_xp"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveled_up"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteBreakHandler handles the CompleteBreakCommand.
type CompleteBreakHandler struct {
	games     game.Repository
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCompleteBreakHandler creates a new CompleteBreakHandler. cache and
// publisher may be nil.
func NewCompleteBreakHandler(
	games game.Repository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CompleteBreakHandler {
	return &CompleteBreakHandler{
		games:     games,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// Handle executes the complete break command.
func (h *CompleteBreakHandler) Handle(ctx context.Context, cmd CompleteBreakCommand) (*CompleteBreakResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	xp := game.XPForBreak(game.BreakOutcome{
		Completed:     cmd.Completed,
		QualityFactor: cmd.QualityFactor,
		ResponseTime:  cmd.ResponseTime,
	})

	breakSession := game.BreakSession{
		ID:        uuid.NewString(),
		UserID:    cmd.UserID,
		StartedAt: cmd.StartedAt,
		EndedAt:   cmd.EndedAt,
		Completed: cmd.Completed,
		XPAwarded: xp,
	}

	progress, err := h.games.GetProgress(ctx, cmd.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		progress = game.Progress{UserID: cmd.UserID, Level: 1}
	}

	next, leveledUp := progress.AddXP(xp)
	next.UpdatedAt = cmd.EndedAt

	// Skipped breaks still insert the break row but contribute no score
	// deltas, so the leaderboard only counts completed breaks.
	var deltas []game.ScoreDelta
	if cmd.Completed {
		deltas = game.DeltasForBreak(cmd.UserID, xp, cmd.EndedAt)
	}

	if err := h.games.CompleteBreak(ctx, breakSession, deltas, next); err != nil {
		return nil, err
	}

	h.invalidateCache(ctx, deltas)

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBreakCompletedEvent(
			cmd.UserID, breakSession.ID, xp, next.TotalXP, next.Level, leveledUp,
		))
	}

	h.log.Info("break recorded",
		logger.UserID(cmd.UserID),
		logger.String("break_id", breakSession.ID),
		logger.XPAmount(xp),
		logger.Int("level", next.Level),
	)

	return &CompleteBreakResult{
		BreakID:   breakSession.ID,
		XPAwarded: xp,
		TotalXP:   next.TotalXP,
		Level:     next.Level,
		LeveledUp: leveledUp,
	}, nil
}

// invalidateCache drops the cached leaderboard pages the break touched.
// Cache errors are logged and ignored; the store stays authoritative.
func (h *CompleteBreakHandler) invalidateCache(ctx context.Context, deltas []game.ScoreDelta) {
	if h.cache == nil {
		return
	}
	for _, d := range deltas {
		if err := h.cache.Invalidate(ctx, d.PeriodType, d.PeriodKey); err != nil {
			h.log.Warn("leaderboard cache invalidation failed",
				logger.PeriodKey(d.PeriodKey),
				logger.Err(err),
			)
		}
	}
}
