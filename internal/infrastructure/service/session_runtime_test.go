package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memEventRepo struct {
	mu     sync.Mutex
	events []session.PostureEvent
	alerts []session.AlertEvent
}

func (m *memEventRepo) InsertPostureEvent(_ context.Context, ev session.PostureEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memEventRepo) InsertAlertEvent(_ context.Context, a session.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *memEventRepo) ListEventsInRange(_ context.Context, _ string, _, _ time.Time) ([]session.PostureEvent, error) {
	return nil, nil
}

func (m *memEventRepo) LatestEventBefore(_ context.Context, _ string, _ time.Time) (session.PostureEvent, error) {
	return session.PostureEvent{}, shared.ErrSessionNotFound
}

func (m *memEventRepo) CountAlertsInRange(_ context.Context, _ string, _, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *memEventRepo) DeleteEventsOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *memEventRepo) byType(t session.EventType) []session.PostureEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.PostureEvent
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type memStatsRepo struct {
	mu      sync.Mutex
	flushes int
	stats   session.UserStats
}

func (m *memStatsRepo) AccumulateStats(_ context.Context, userID string, correct, incorrect, alerts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	m.stats.UserID = userID
	m.stats.CorrectSeconds += correct
	m.stats.IncorrectSeconds += incorrect
	m.stats.AlertsCount += alerts
	return nil
}

func (m *memStatsRepo) GetStats(_ context.Context, _ string) (session.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats, nil
}

type memSettingsRepo struct {
	settings user.Settings
}

func (m *memSettingsRepo) GetOrCreate(_ context.Context, userID string) (user.Settings, error) {
	if m.settings.UserID == "" {
		return user.DefaultSettings(userID), nil
	}
	return m.settings, nil
}

func (m *memSettingsRepo) Save(_ context.Context, _ user.Settings) error {
	return nil
}

func newTestRuntime(events *memEventRepo, stats *memStatsRepo) *SessionRuntime {
	return NewSessionRuntime(RuntimeOptions{
		Events:   events,
		Stats:    stats,
		Settings: &memSettingsRepo{},
		Logger:   logger.New(logger.Options{Output: io.Discard}),
		// Keep the ticker quiet during unit tests.
		TickInterval: time.Hour,
	})
}

func goodFrame() posture.Frame {
	return posture.Frame{Keypoints: []posture.Keypoint{
		{Name: posture.KeypointNose, X: 0.50, Y: 0.30, Confidence: 0.9},
		{Name: posture.KeypointLeftShoulder, X: 0.40, Y: 0.50, Confidence: 0.9},
		{Name: posture.KeypointRightShoulder, X: 0.60, Y: 0.50, Confidence: 0.9},
	}}
}

func slouchFrame() posture.Frame {
	// Nose barely above the shoulder line: the nose-to-shoulder angle is
	// far outside the upright band while the head stays centered.
	return posture.Frame{Keypoints: []posture.Keypoint{
		{Name: posture.KeypointNose, X: 0.52, Y: 0.49, Confidence: 0.9},
		{Name: posture.KeypointLeftShoulder, X: 0.40, Y: 0.50, Confidence: 0.9},
		{Name: posture.KeypointRightShoulder, X: 0.60, Y: 0.50, Confidence: 0.9},
	}}
}

func unusableFrame() posture.Frame {
	return posture.Frame{Keypoints: []posture.Keypoint{
		{Name: posture.KeypointNose, X: 0.50, Y: 0.30, Confidence: 0.01},
	}}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSessionRuntime_Lifecycle(t *testing.T) {
	events := &memEventRepo{}
	stats := &memStatsRepo{}
	rt := newTestRuntime(events, stats)
	ctx := context.Background()

	sessionID, err := rt.StartSession(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	require.Len(t, events.byType(session.EventSessionStart), 1)

	_, err = rt.StartSession(ctx, "user-1")
	assert.ErrorIs(t, err, shared.ErrSessionAlreadyActive)

	status, err := rt.Status("user-1")
	require.NoError(t, err)
	assert.Equal(t, sessionID, status.SessionID)
	assert.Equal(t, posture.StateCorrect, status.State)

	summary, err := rt.EndSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, sessionID, summary.SessionID)

	require.Len(t, events.byType(session.EventSessionEnd), 1)
	assert.Equal(t, 1, stats.flushes, "ending flushes counters exactly once")

	_, err = rt.EndSession(ctx, "user-1")
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestSessionRuntime_FrameTransitions(t *testing.T) {
	events := &memEventRepo{}
	rt := newTestRuntime(events, &memStatsRepo{})
	ctx := context.Background()

	_, err := rt.StartSession(ctx, "user-1")
	require.NoError(t, err)

	// A correct frame repeats the initial state: no transition logged.
	res, err := rt.SubmitFrame(ctx, "user-1", goodFrame())
	require.NoError(t, err)
	assert.True(t, res.Usable)
	assert.Equal(t, posture.StateCorrect, res.State)
	assert.Empty(t, events.byType(session.EventCorrect))

	// A slouch flips the state and logs one incorrect transition.
	res, err = rt.SubmitFrame(ctx, "user-1", slouchFrame())
	require.NoError(t, err)
	assert.Equal(t, posture.StateIncorrect, res.State)
	incorrect := events.byType(session.EventIncorrect)
	require.Len(t, incorrect, 1)
	assert.Equal(t, posture.ReasonSlouching, incorrect[0].Reason)

	// Repeating the slouch logs nothing new.
	_, err = rt.SubmitFrame(ctx, "user-1", slouchFrame())
	require.NoError(t, err)
	assert.Len(t, events.byType(session.EventIncorrect), 1)

	// An unusable frame holds the state.
	res, err = rt.SubmitFrame(ctx, "user-1", unusableFrame())
	require.NoError(t, err)
	assert.False(t, res.Usable)
	assert.Equal(t, posture.StateIncorrect, res.State)

	// Recovery flips back and logs one correct transition.
	res, err = rt.SubmitFrame(ctx, "user-1", goodFrame())
	require.NoError(t, err)
	assert.Equal(t, posture.StateCorrect, res.State)
	assert.Len(t, events.byType(session.EventCorrect), 1)
}

func TestSessionRuntime_FrameWithoutSession(t *testing.T) {
	rt := newTestRuntime(&memEventRepo{}, &memStatsRepo{})

	_, err := rt.SubmitFrame(context.Background(), "user-1", goodFrame())
	assert.ErrorIs(t, err, shared.ErrNoActiveSession)
}

func TestSessionRuntime_CloseEndsSessions(t *testing.T) {
	events := &memEventRepo{}
	stats := &memStatsRepo{}
	rt := newTestRuntime(events, stats)
	ctx := context.Background()

	_, err := rt.StartSession(ctx, "user-1")
	require.NoError(t, err)
	_, err = rt.StartSession(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, rt.Close(ctx))

	assert.Len(t, events.byType(session.EventSessionEnd), 2)

	_, err = rt.StartSession(ctx, "user-3")
	assert.Error(t, err, "a closed runtime accepts no new sessions")
}

func notificationFor(userID, title string) notification.Notification {
	return notification.Notification{
		UserID: userID,
		Kind:   notification.KindBreakPrompt,
		Title:  title,
	}
}

func TestNotificationQueue_DrainClears(t *testing.T) {
	q := NewNotificationQueue(logger.New(logger.Options{Output: io.Discard}))

	require.NoError(t, q.Notify(notificationFor("user-1", "first")))
	require.NoError(t, q.Notify(notificationFor("user-1", "second")))
	require.NoError(t, q.Notify(notificationFor("user-2", "other")))

	assert.Equal(t, 2, q.Pending("user-1"))

	drained := q.Drain("user-1")
	require.Len(t, drained, 2)
	assert.Equal(t, "first", drained[0].Title, "FIFO order")
	assert.NotEmpty(t, drained[0].ID)

	assert.Nil(t, q.Drain("user-1"), "drain clears the queue")
	assert.Equal(t, 1, q.Pending("user-2"))
}
