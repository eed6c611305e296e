// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the ranked page for one period. Cache-first when a cache is
// wired; SQLite stays the source of truth.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// PeriodType is daily, weekly, or monthly; empty defaults to daily.
	PeriodType string

	// PeriodKey selects the period; empty means the current one for Now.
	PeriodKey string

	// Limit is the page size (default 10, max 50).
	Limit int

	// Now anchors "current period" resolution; zero means time.Now().
	Now time.Time
}

// LeaderboardEntryDTO is one leaderboard row for the API.
type LeaderboardEntryDTO struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"user_id"`
	FullName    string     `json:"full_name"`
	OrgName     string     `json:"org_name,omitempty"`
	Level       *int       `json:"level"`
	TotalXP     *int64     `json:"total_xp"`
	PeriodScore int64      `json:"period_score"`
	BreaksCount int64      `json:"breaks_count"`
	LastBreakAt *time.Time `json:"last_break_at,omitempty"`
}

// GetLeaderboardResult contains the leaderboard page.
type GetLeaderboardResult struct {
	PeriodType string                `json:"period_type"`
	PeriodKey  string                `json:"period_key"`
	Entries    []LeaderboardEntryDTO `json:"entries"`
	FromCache  bool                  `json:"-"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. cache may
// be nil when the hot cache is disabled.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{repo: repo, cache: cache, log: log}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	periodType, err := shared.ParsePeriodType(q.PeriodType)
	if err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	periodKey := q.PeriodKey
	if periodKey == "" {
		periodKey = game.PeriodKeyFor(periodType, now)
	}

	limit := leaderboard.ClampLimit(q.Limit)

	entries, fromCache, err := h.load(ctx, periodType, periodKey, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		dto := LeaderboardEntryDTO{
			Rank:        int(e.Rank),
			UserID:      e.UserID,
			FullName:    e.FullName,
			OrgName:     e.OrgName,
			Level:       e.Level,
			TotalXP:     e.TotalXP,
			PeriodScore: e.PeriodScore,
			BreaksCount: e.BreaksCount,
		}
		if !e.LastBreakAt.IsZero() {
			t := e.LastBreakAt
			dto.LastBreakAt = &t
		}
		dtos = append(dtos, dto)
	}

	return &GetLeaderboardResult{
		PeriodType: periodType.String(),
		PeriodKey:  periodKey,
		Entries:    dtos,
		FromCache:  fromCache,
	}, nil
}

// load reads from the cache when possible and falls back to the store.
// Cache failures degrade silently to the store; a store failure is the
// caller's error, an empty page and a broken database must not look alike.
func (h *GetLeaderboardHandler) load(ctx context.Context, periodType shared.PeriodType, periodKey string, limit int) ([]leaderboard.Entry, bool, error) {
	if h.cache != nil {
		cached, err := h.cache.GetCachedTop(ctx, periodType, periodKey, limit)
		if err != nil {
			h.log.Warn("leaderboard cache read failed",
				logger.PeriodKey(periodKey),
				logger.Err(err),
			)
		} else if cached != nil {
			return cached, true, nil
		}
	}

	entries, err := h.repo.GetTop(ctx, periodType, periodKey, limit)
	if err != nil {
		h.log.Error("leaderboard store read failed",
			logger.PeriodKey(periodKey),
			logger.Err(err),
		)
		return nil, false, err
	}

	if h.cache != nil && len(entries) > 0 {
		if err := h.cache.SetCachedTop(ctx, periodType, periodKey, entries, 0); err != nil {
			h.log.Warn("leaderboard cache write failed",
				logger.PeriodKey(periodKey),
				logger.Err(err),
			)
		}
	}

	return entries, false, nil
}
