package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// RefreshLeaderboardCache rebuilds the cached leaderboard pages for the
// current daily, weekly, and monthly periods. Break completions already
// invalidate touched pages; this job keeps the cache warm so the first
// read after an invalidation does not pay the join.
type RefreshLeaderboardCache struct {
	repo   leaderboard.Repository
	cache  leaderboard.Cache
	logger *slog.Logger
}

// NewRefreshLeaderboardCache creates the refresh job. cache may be nil
// when the hot cache is disabled; the job is then a no-op.
func NewRefreshLeaderboardCache(repo leaderboard.Repository, cache leaderboard.Cache, logger *slog.Logger) *RefreshLeaderboardCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshLeaderboardCache{repo: repo, cache: cache, logger: logger}
}

// Name implements scheduler.Job.
func (j *RefreshLeaderboardCache) Name() string { return "refresh_leaderboard_cache" }

// Description implements scheduler.Job.
func (j *RefreshLeaderboardCache) Description() string {
	return "rebuild the cached leaderboard pages for the current periods"
}

// Run implements scheduler.Job.
func (j *RefreshLeaderboardCache) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}

	now := time.Now()
	var firstErr error

	for _, periodType := range shared.AllPeriodTypes() {
		periodKey := game.PeriodKeyFor(periodType, now)

		entries, err := j.repo.GetTop(ctx, periodType, periodKey, leaderboard.MaxLimit)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to read leaderboard %s/%s: %w", periodType, periodKey, err)
			}
			continue
		}

		if err := j.cache.SetCachedTop(ctx, periodType, periodKey, entries, 0); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to cache leaderboard %s/%s: %w", periodType, periodKey, err)
			}
			continue
		}

		j.logger.Debug("leaderboard page cached",
			"period_type", periodType.String(),
			"period_key", periodKey,
			"entries", len(entries),
		)
	}

	return firstErr
}
