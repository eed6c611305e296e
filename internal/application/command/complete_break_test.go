package command

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeGameRepo struct {
	progress   map[string]game.Progress
	breaks     []game.BreakSession
	deltaCount int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{progress: make(map[string]game.Progress)}
}

func (f *fakeGameRepo) CompleteBreak(_ context.Context, b game.BreakSession, deltas []game.ScoreDelta, p game.Progress) error {
	f.breaks = append(f.breaks, b)
	f.deltaCount += len(deltas)
	f.progress[p.UserID] = p
	return nil
}

func (f *fakeGameRepo) GetProgress(_ context.Context, userID string) (game.Progress, error) {
	p, ok := f.progress[userID]
	if !ok {
		return game.Progress{}, shared.ErrProgressNotFound
	}
	return p, nil
}

func (f *fakeGameRepo) GetScore(_ context.Context, _ string, _ shared.PeriodType, _ string) (game.Score, error) {
	return game.Score{}, shared.ErrScoreNotFound
}

func (f *fakeGameRepo) ListBreakSessions(_ context.Context, _ string, _ int) ([]game.BreakSession, error) {
	return f.breaks, nil
}

type fakeCache struct {
	invalidated []string
}

func (f *fakeCache) GetCachedTop(_ context.Context, _ shared.PeriodType, _ string, _ int) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (f *fakeCache) SetCachedTop(_ context.Context, _ shared.PeriodType, _ string, _ []leaderboard.Entry, _ time.Duration) error {
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, periodType shared.PeriodType, periodKey string) error {
	f.invalidated = append(f.invalidated, string(periodType)+":"+periodKey)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestCompleteBreakHandler_AwardsXPAndInvalidatesCache(t *testing.T) {
	repo := newFakeGameRepo()
	cache := &fakeCache{}
	h := NewCompleteBreakHandler(repo, cache, nil, testLogger())

	endedAt := time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)
	rt := 4 * time.Second

	res, err := h.Handle(context.Background(), CompleteBreakCommand{
		UserID:        "user-1",
		StartedAt:     endedAt.Add(-2 * time.Minute),
		EndedAt:       endedAt,
		Completed:     true,
		QualityFactor: 1.0,
		ResponseTime:  &rt,
	})
	require.NoError(t, err)

	assert.Equal(t, 120, res.XPAwarded, "base 50 + quality 50 + fast bonus 20")
	assert.Equal(t, int64(120), res.TotalXP)
	assert.Equal(t, 2, res.Level)
	assert.True(t, res.LeveledUp)

	assert.Equal(t, 3, repo.deltaCount, "one delta per period type")
	assert.ElementsMatch(t, []string{
		"daily:2025-11-19",
		"weekly:2025-W47",
		"monthly:2025-11",
	}, cache.invalidated)
}

func TestCompleteBreakHandler_SkippedBreakEarnsNothing(t *testing.T) {
	repo := newFakeGameRepo()
	h := NewCompleteBreakHandler(repo, nil, nil, testLogger())

	endedAt := time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)

	res, err := h.Handle(context.Background(), CompleteBreakCommand{
		UserID:        "user-1",
		StartedAt:     endedAt.Add(-time.Minute),
		EndedAt:       endedAt,
		Completed:     false,
		QualityFactor: 1.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.XPAwarded)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 0, repo.deltaCount, "skipped breaks feed no period score")
	require.Len(t, repo.breaks, 1, "the break row is still recorded")
	assert.False(t, repo.breaks[0].Completed)
}

func TestCompleteBreakHandler_AccumulatesAcrossBreaks(t *testing.T) {
	repo := newFakeGameRepo()
	h := NewCompleteBreakHandler(repo, nil, nil, testLogger())

	endedAt := time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)

	first, err := h.Handle(context.Background(), CompleteBreakCommand{
		UserID: "user-1", StartedAt: endedAt.Add(-time.Minute), EndedAt: endedAt,
		Completed: true, QualityFactor: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 75, first.XPAwarded)

	second, err := h.Handle(context.Background(), CompleteBreakCommand{
		UserID: "user-1", StartedAt: endedAt.Add(29 * time.Minute), EndedAt: endedAt.Add(30 * time.Minute),
		Completed: true, QualityFactor: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(150), second.TotalXP)
	assert.Equal(t, 2, second.Level)
}

func TestCompleteBreakHandler_RejectsInvalidTimes(t *testing.T) {
	h := NewCompleteBreakHandler(newFakeGameRepo(), nil, nil, testLogger())

	endedAt := time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)

	_, err := h.Handle(context.Background(), CompleteBreakCommand{
		UserID:    "user-1",
		StartedAt: endedAt.Add(time.Minute),
		EndedAt:   endedAt,
		Completed: true,
	})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), CompleteBreakCommand{
		StartedAt: endedAt.Add(-time.Minute),
		EndedAt:   endedAt,
	})
	assert.Error(t, err)
}
