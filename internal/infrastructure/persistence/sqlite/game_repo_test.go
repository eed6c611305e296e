package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

func newTestConnection(t *testing.T) *Connection {
	t.Helper()

	ctx := context.Background()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"))

	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	log := logger.New(logger.Options{Output: io.Discard})
	require.NoError(t, NewMigrator(conn, log).Run(ctx))

	return conn
}

func createTestUser(t *testing.T, conn *Connection, email string) string {
	t.Helper()

	id := uuid.NewString()
	err := NewUserRepository(conn).Create(context.Background(), user.User{
		ID:           id,
		Email:        shared.Email(email),
		PasswordHash: "x",
		Role:         user.RoleClient,
		FullName:     "Test User",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return id
}

func TestGameRepository_CompleteBreakAccumulates(t *testing.T) {
	conn := newTestConnection(t)
	repo := NewGameRepository(conn)
	ctx := context.Background()

	userID := createTestUser(t, conn, "breaks@example.com")
	endedAt := time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)

	complete := func(id string, xp int, at time.Time) {
		b := game.BreakSession{
			ID:        id,
			UserID:    userID,
			StartedAt: at.Add(-time.Minute),
			EndedAt:   at,
			Completed: true,
			XPAwarded: xp,
		}
		progress, _ := game.Progress{UserID: userID, Level: 1}.AddXP(xp)
		progress.UpdatedAt = at
		require.NoError(t, repo.CompleteBreak(ctx, b, game.DeltasForBreak(userID, xp, at), progress))
	}

	complete("break-1", 110, endedAt)
	complete("break-2", 100, endedAt.Add(40*time.Minute))

	t.Run("daily score accumulates additively", func(t *testing.T) {
		score, err := repo.GetScore(ctx, userID, shared.PeriodDaily, "2025-11-19")
		require.NoError(t, err)
		assert.Equal(t, int64(210), score.TotalScore)
		assert.Equal(t, int64(2), score.BreaksCount)
		assert.Equal(t, endedAt.Add(40*time.Minute).UnixMilli(), score.LastBreakAt.UnixMilli())
	})

	t.Run("weekly and monthly rows exist", func(t *testing.T) {
		weekly, err := repo.GetScore(ctx, userID, shared.PeriodWeekly, "2025-W47")
		require.NoError(t, err)
		assert.Equal(t, int64(210), weekly.TotalScore)

		monthly, err := repo.GetScore(ctx, userID, shared.PeriodMonthly, "2025-11")
		require.NoError(t, err)
		assert.Equal(t, int64(2), monthly.BreaksCount)
	})

	t.Run("break history is newest first", func(t *testing.T) {
		sessions, err := repo.ListBreakSessions(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "break-2", sessions[0].ID)
	})

	t.Run("missing score row maps to domain error", func(t *testing.T) {
		_, err := repo.GetScore(ctx, userID, shared.PeriodDaily, "2025-11-20")
		assert.ErrorIs(t, err, shared.ErrScoreNotFound)
	})
}

func TestLeaderboardRepository_OrderAndNullProgress(t *testing.T) {
	conn := newTestConnection(t)
	gameRepo := NewGameRepository(conn)
	lbRepo := NewLeaderboardRepository(conn)
	ctx := context.Background()

	endedAt := time.Date(2025, 11, 19, 10, 0, 0, 0, time.UTC)

	top := createTestUser(t, conn, "top@example.com")
	early := createTestUser(t, conn, "early@example.com")
	late := createTestUser(t, conn, "late@example.com")

	complete := func(userID string, xp int, at time.Time) {
		b := game.BreakSession{
			ID: uuid.NewString(), UserID: userID,
			StartedAt: at.Add(-time.Minute), EndedAt: at,
			Completed: true, XPAwarded: xp,
		}
		progress, _ := game.Progress{UserID: userID, Level: 1}.AddXP(xp)
		progress.UpdatedAt = at
		require.NoError(t, gameRepo.CompleteBreak(ctx, b, game.DeltasForBreak(userID, xp, at), progress))
	}

	complete(top, 120, endedAt.Add(2*time.Hour))
	complete(early, 100, endedAt)
	complete(late, 100, endedAt.Add(time.Hour))

	entries, err := lbRepo.GetTop(ctx, shared.PeriodDaily, "2025-11-19", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, top, entries[0].UserID)
	assert.Equal(t, early, entries[1].UserID, "ties go to the earlier last break")
	assert.Equal(t, late, entries[2].UserID)
	assert.Equal(t, leaderboard.Rank(1), entries[0].Rank)

	require.NotNil(t, entries[0].Level)
	assert.Equal(t, 2, *entries[0].Level)
	require.NotNil(t, entries[0].TotalXP)
	assert.Equal(t, int64(120), *entries[0].TotalXP)
}

func TestSettingsRepository_GetOrCreate(t *testing.T) {
	conn := newTestConnection(t)
	repo := NewSettingsRepository(conn)
	ctx := context.Background()

	userID := createTestUser(t, conn, "settings@example.com")

	s, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, user.DefaultSensitivity, s.Sensitivity)
	assert.True(t, s.NotificationsEnabled)

	s.Sensitivity = 8
	s.NotificationsEnabled = false
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Sensitivity)
	assert.False(t, got.NotificationsEnabled)
}
