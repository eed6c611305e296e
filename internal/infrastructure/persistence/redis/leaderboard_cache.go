package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache on Redis. One key per
// (period type, period key) holds the full ranked page as JSON; period keys
// roll over naturally, so stale periods just expire.
type LeaderboardCache struct {
	cache *Cache
}

// keyLeaderboard is the key prefix for cached leaderboard pages.
const keyLeaderboard = "leaderboard:"

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func leaderboardKey(periodType shared.PeriodType, periodKey string) string {
	return fmt.Sprintf("%s%s:%s", keyLeaderboard, periodType, periodKey)
}

// cachedEntry is the wire form of a leaderboard entry in Redis.
type cachedEntry struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"user_id"`
	FullName    string     `json:"full_name"`
	OrgName     string     `json:"org_name,omitempty"`
	Level       *int       `json:"level"`
	TotalXP     *int64     `json:"total_xp"`
	PeriodScore int64      `json:"period_score"`
	BreaksCount int64      `json:"breaks_count"`
	LastBreakAt time.Time  `json:"last_break_at"`
}

// GetCachedTop returns the cached page for a period, or (nil, nil) on a
// cache miss. Writers always store the full MaxLimit page, so any cached
// page can serve any clamped limit by truncation.
func (l *LeaderboardCache) GetCachedTop(ctx context.Context, periodType shared.PeriodType, periodKey string, limit int) ([]leaderboard.Entry, error) {
	var cached []cachedEntry
	err := l.cache.Get(ctx, leaderboardKey(periodType, periodKey), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]leaderboard.Entry, 0, limit)
	for _, c := range cached {
		if len(entries) == limit {
			break
		}
		entries = append(entries, leaderboard.Entry{
			Rank:        leaderboard.Rank(c.Rank),
			UserID:      c.UserID,
			FullName:    c.FullName,
			OrgName:     c.OrgName,
			Level:       c.Level,
			TotalXP:     c.TotalXP,
			PeriodScore: c.PeriodScore,
			BreaksCount: c.BreaksCount,
			LastBreakAt: c.LastBreakAt,
		})
	}

	return entries, nil
}

// SetCachedTop stores the ranked page for a period.
func (l *LeaderboardCache) SetCachedTop(ctx context.Context, periodType shared.PeriodType, periodKey string, entries []leaderboard.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}

	cached := make([]cachedEntry, 0, len(entries))
	for _, e := range entries {
		cached = append(cached, cachedEntry{
			Rank:        int(e.Rank),
			UserID:      e.UserID,
			FullName:    e.FullName,
			OrgName:     e.OrgName,
			Level:       e.Level,
			TotalXP:     e.TotalXP,
			PeriodScore: e.PeriodScore,
			BreaksCount: e.BreaksCount,
			LastBreakAt: e.LastBreakAt,
		})
	}

	return l.cache.Set(ctx, leaderboardKey(periodType, periodKey), cached, ttl)
}

// Invalidate drops the cached page for a period.
func (l *LeaderboardCache) Invalidate(ctx context.Context, periodType shared.PeriodType, periodKey string) error {
	return l.cache.Delete(ctx, leaderboardKey(periodType, periodKey))
}

// InvalidateAll removes every cached leaderboard page.
func (l *LeaderboardCache) InvalidateAll(ctx context.Context) error {
	return l.cache.DeleteByPattern(ctx, keyLeaderboard+"*")
}
