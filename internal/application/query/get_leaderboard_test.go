package query

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/challenge"
	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeLeaderboardRepo struct {
	entries []leaderboard.Entry
	err     error
	calls   int
}

func (f *fakeLeaderboardRepo) GetTop(_ context.Context, _ shared.PeriodType, _ string, limit int) ([]leaderboard.Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

type fakeLeaderboardCache struct {
	pages map[string][]leaderboard.Entry
}

func newFakeLeaderboardCache() *fakeLeaderboardCache {
	return &fakeLeaderboardCache{pages: make(map[string][]leaderboard.Entry)}
}

func cacheKey(pt shared.PeriodType, pk string) string {
	return string(pt) + ":" + pk
}

func (f *fakeLeaderboardCache) GetCachedTop(_ context.Context, pt shared.PeriodType, pk string, limit int) ([]leaderboard.Entry, error) {
	page, ok := f.pages[cacheKey(pt, pk)]
	if !ok {
		return nil, nil
	}
	if limit < len(page) {
		page = page[:limit]
	}
	return page, nil
}

func (f *fakeLeaderboardCache) SetCachedTop(_ context.Context, pt shared.PeriodType, pk string, entries []leaderboard.Entry, _ time.Duration) error {
	f.pages[cacheKey(pt, pk)] = entries
	return nil
}

func (f *fakeLeaderboardCache) Invalidate(_ context.Context, pt shared.PeriodType, pk string) error {
	delete(f.pages, cacheKey(pt, pk))
	return nil
}

type fakeGameRepo struct {
	scores map[string]game.Score
}

func (f *fakeGameRepo) CompleteBreak(_ context.Context, _ game.BreakSession, _ []game.ScoreDelta, _ game.Progress) error {
	return nil
}

func (f *fakeGameRepo) GetScore(_ context.Context, userID string, pt shared.PeriodType, pk string) (game.Score, error) {
	s, ok := f.scores[userID+"|"+cacheKey(pt, pk)]
	if !ok {
		return game.Score{}, shared.ErrScoreNotFound
	}
	return s, nil
}

func (f *fakeGameRepo) GetProgress(_ context.Context, _ string) (game.Progress, error) {
	return game.Progress{}, shared.ErrProgressNotFound
}

func (f *fakeGameRepo) ListBreakSessions(_ context.Context, _ string, _ int) ([]game.BreakSession, error) {
	return nil, nil
}

type fakeChallengeRepo struct {
	defs []challenge.Challenge
}

func (f *fakeChallengeRepo) ListActive(_ context.Context, pt shared.PeriodType) ([]challenge.Challenge, error) {
	var out []challenge.Challenge
	for _, d := range f.defs {
		if d.PeriodType == pt && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func leaderboardFixture() []leaderboard.Entry {
	level := 3
	xp := int64(450)
	return []leaderboard.Entry{
		{Rank: 1, UserID: "user-1", FullName: "Anna K", Level: &level, TotalXP: &xp, PeriodScore: 340, BreaksCount: 3},
		{Rank: 2, UserID: "user-2", FullName: "Boris M", PeriodScore: 120, BreaksCount: 1},
	}
}

func TestGetLeaderboardHandler_StoreThenCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: leaderboardFixture()}
	cache := newFakeLeaderboardCache()
	h := NewGetLeaderboardHandler(repo, cache, testLogger())

	now := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)

	first, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "daily", Now: now})
	require.NoError(t, err)

	assert.Equal(t, "daily", first.PeriodType)
	assert.Equal(t, "2025-11-19", first.PeriodKey)
	assert.False(t, first.FromCache)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, 1, first.Entries[0].Rank)
	require.NotNil(t, first.Entries[0].Level)
	assert.Equal(t, 3, *first.Entries[0].Level)
	assert.Nil(t, first.Entries[1].Level, "users without progress have null level")

	second, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "daily", Now: now})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, repo.calls, "the second read is served from the cache")
}

func TestGetLeaderboardHandler_NoCache(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: leaderboardFixture()}
	h := NewGetLeaderboardHandler(repo, nil, testLogger())

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "weekly", PeriodKey: "2025-W47"})
	require.NoError(t, err)
	assert.Equal(t, "2025-W47", res.PeriodKey)
	assert.False(t, res.FromCache)
}

func TestGetLeaderboardHandler_StoreFailureIsAnError(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	repo := &fakeLeaderboardRepo{err: storeErr}

	t.Run("without cache", func(t *testing.T) {
		h := NewGetLeaderboardHandler(repo, nil, testLogger())

		res, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "daily"})
		assert.ErrorIs(t, err, storeErr, "a broken store must not read as an empty board")
		assert.Nil(t, res)
	})

	t.Run("cold cache falls through to the failing store", func(t *testing.T) {
		h := NewGetLeaderboardHandler(repo, newFakeLeaderboardCache(), testLogger())

		res, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "daily"})
		assert.ErrorIs(t, err, storeErr)
		assert.Nil(t, res)
	})
}

func TestGetLeaderboardHandler_RejectsUnknownPeriod(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeLeaderboardRepo{}, nil, testLogger())

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{PeriodType: "yearly"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGetActiveChallengesHandler(t *testing.T) {
	defs := &fakeChallengeRepo{defs: []challenge.Challenge{
		{
			ID: "daily-starter", PeriodType: shared.PeriodDaily, Name: "First Break",
			TargetType: challenge.TargetBreaksCompleted, TargetValue: 1, RewardXP: 50, Active: true,
		},
		{
			ID: "daily-grinder", PeriodType: shared.PeriodDaily, Name: "Grinder",
			TargetType: challenge.TargetXPGain, TargetValue: 500, RewardXP: 150, Active: true,
		},
		{
			ID: "weekly-regular", PeriodType: shared.PeriodWeekly, Name: "Regular",
			TargetType: challenge.TargetBreaksCompleted, TargetValue: 15, RewardXP: 300, Active: true,
		},
	}}

	now := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)
	games := &fakeGameRepo{scores: map[string]game.Score{
		"user-1|daily:2025-11-19": {UserID: "user-1", TotalScore: 230, BreaksCount: 2},
	}}

	h := NewGetActiveChallengesHandler(defs, games, testLogger())

	t.Run("progress from the current period score", func(t *testing.T) {
		res, err := h.Handle(context.Background(), GetActiveChallengesQuery{
			UserID: "user-1", PeriodType: "daily", Now: now,
		})
		require.NoError(t, err)

		assert.Equal(t, "2025-11-19", res.PeriodKey)
		require.Len(t, res.Challenges, 2, "weekly definitions are excluded")

		starter := res.Challenges[0]
		assert.Equal(t, int64(1), starter.ProgressValue, "progress caps at the target")
		assert.True(t, starter.Completed)

		grinder := res.Challenges[1]
		assert.Equal(t, int64(230), grinder.ProgressValue)
		assert.False(t, grinder.Completed)
	})

	t.Run("no score row means zero progress", func(t *testing.T) {
		res, err := h.Handle(context.Background(), GetActiveChallengesQuery{
			UserID: "user-2", PeriodType: "daily", Now: now,
		})
		require.NoError(t, err)

		for _, ch := range res.Challenges {
			assert.Equal(t, int64(0), ch.ProgressValue)
			assert.False(t, ch.Completed)
		}
	})
}

func TestExportEventsHandler_WritesCSV(t *testing.T) {
	repo := &fakeEventRepo{}
	h := NewExportEventsHandler(repo, testLogger())

	from := time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)
	repo.events = append(repo.events,
		postureEvent("user-1", session.EventSessionStart, from),
		postureEvent("user-1", session.EventIncorrect, from.Add(time.Minute)),
	)
	repo.events[1].Reason = "slouching"

	var buf bytes.Buffer
	err := h.Handle(context.Background(), ExportEventsQuery{
		UserID: "user-1",
		From:   from,
		To:     from.Add(time.Hour),
	}, &buf)
	require.NoError(t, err)

	want := "timestamp,type,reason\n" +
		"2025-11-19T09:00:00Z,session_start,\n" +
		"2025-11-19T09:01:00Z,incorrect,slouching\n"
	assert.Equal(t, want, buf.String())
}

func TestExportEventsHandler_RequiresRange(t *testing.T) {
	h := NewExportEventsHandler(&fakeEventRepo{}, testLogger())

	var buf bytes.Buffer
	err := h.Handle(context.Background(), ExportEventsQuery{UserID: "user-1"}, &buf)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}
