package game

import (
	"context"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

// Repository persists break sessions, period scores, and global progress.
// CompleteBreak implementations must apply all writes in one transaction.
type Repository interface {
	// CompleteBreak atomically inserts the break session, applies the
	// three period score deltas additively, and upserts the user's
	// progress with the recomputed level.
	CompleteBreak(ctx context.Context, breakSession BreakSession, deltas []ScoreDelta, progress Progress) error

	// GetScore returns the score row for (user, period type, period key),
	// or shared.ErrScoreNotFound.
	GetScore(ctx context.Context, userID string, periodType shared.PeriodType, periodKey string) (Score, error)

	// GetProgress returns the user's global progress, or
	// shared.ErrProgressNotFound when no break was ever completed.
	GetProgress(ctx context.Context, userID string) (Progress, error)

	// ListBreakSessions returns the user's break sessions, newest first,
	// up to limit rows.
	ListBreakSessions(ctx context.Context, userID string, limit int) ([]BreakSession, error)
}
