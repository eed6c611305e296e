package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/posture"
)

func testSettings() Settings {
	return Settings{
		Sensitivity:           5,
		AlertThresholdSeconds: 3,
		BreakIntervalMinutes:  30,
		NotificationsEnabled:  true,
	}
}

func incorrect(reason posture.FailureReason) posture.Verdict {
	return posture.Verdict{State: posture.StateIncorrect, Reason: reason}
}

func correct() posture.Verdict {
	return posture.Verdict{State: posture.StateCorrect}
}

func TestTracker_LogsOnlyTransitions(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	tr := NewTracker("user-1", testSettings(), t0)

	// Session starts in correct posture: a correct verdict is not a transition.
	assert.Nil(t, tr.HandleVerdict(correct(), t0.Add(time.Second)))

	ev := tr.HandleVerdict(incorrect(posture.ReasonSlouching), t0.Add(2*time.Second))
	require.NotNil(t, ev)
	assert.Equal(t, EventIncorrect, ev.Type)
	assert.Equal(t, posture.ReasonSlouching, ev.Reason)
	assert.Equal(t, "user-1", ev.UserID)
	assert.Equal(t, tr.ID(), ev.SessionID)

	// Repeated incorrect verdicts log nothing.
	assert.Nil(t, tr.HandleVerdict(incorrect(posture.ReasonSlouching), t0.Add(3*time.Second)))
	assert.Nil(t, tr.HandleVerdict(incorrect(posture.ReasonHeadOffCenter), t0.Add(4*time.Second)))

	back := tr.HandleVerdict(correct(), t0.Add(5*time.Second))
	require.NotNil(t, back)
	assert.Equal(t, EventCorrect, back.Type)
}

func TestTracker_TickCountsPerState(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	tr := NewTracker("user-1", testSettings(), t0)

	tr.Tick(t0.Add(1 * time.Second))
	tr.Tick(t0.Add(2 * time.Second))

	tr.HandleVerdict(incorrect(posture.ReasonSlouching), t0.Add(2500*time.Millisecond))
	tr.Tick(t0.Add(3 * time.Second))

	correctSecs, incorrectSecs, alerts := tr.Counters()
	assert.Equal(t, int64(2), correctSecs)
	assert.Equal(t, int64(1), incorrectSecs)
	assert.Equal(t, 0, alerts)
}

// One session, one bad-posture run, exactly one alert: posture flips to
// incorrect at 4000ms with a 3s threshold, the alert fires on the first
// tick past 7000ms, and flipping back to correct re-arms without firing
// a second alert for the same run.
func TestTracker_AlertFiresOncePerBadRun(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	tr := NewTracker("user-1", testSettings(), t0)

	ev := tr.HandleVerdict(incorrect(posture.ReasonSlouching), t0.Add(4000*time.Millisecond))
	require.NotNil(t, ev)

	// Ticks before the threshold elapses: no alert.
	assert.Nil(t, tr.Tick(t0.Add(5000*time.Millisecond)).Alert)
	assert.Nil(t, tr.Tick(t0.Add(6000*time.Millisecond)).Alert)
	assert.Nil(t, tr.Tick(t0.Add(7000*time.Millisecond)).Alert)

	// 3001ms into the run: strictly past the threshold.
	result := tr.Tick(t0.Add(7001 * time.Millisecond))
	require.NotNil(t, result.Alert)
	assert.Equal(t, posture.ReasonSlouching, result.Alert.Reason)

	// Still incorrect: the latch holds, no second alert.
	assert.Nil(t, tr.Tick(t0.Add(7500*time.Millisecond)).Alert)

	// Back to correct at 8000ms clears the run.
	tr.HandleVerdict(correct(), t0.Add(8000*time.Millisecond))
	assert.Nil(t, tr.Tick(t0.Add(9000*time.Millisecond)).Alert)
	assert.Nil(t, tr.Tick(t0.Add(20*time.Second)).Alert)

	_, _, alerts := tr.Counters()
	assert.Equal(t, 1, alerts)

	// A new bad run can alert again.
	tr.HandleVerdict(incorrect(posture.ReasonShouldersTilted), t0.Add(30*time.Second))
	assert.Nil(t, tr.Tick(t0.Add(32*time.Second)).Alert)
	again := tr.Tick(t0.Add(34*time.Second))
	require.NotNil(t, again.Alert)

	_, _, alerts = tr.Counters()
	assert.Equal(t, 2, alerts)
}

func TestTracker_BreakPromptAtIntervalMultiples(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	settings := testSettings()
	settings.BreakIntervalMinutes = 1
	tr := NewTracker("user-1", settings, t0)

	assert.Nil(t, tr.Tick(t0.Add(59*time.Second)).BreakPrompt)

	prompt := tr.Tick(t0.Add(60 * time.Second)).BreakPrompt
	require.NotNil(t, prompt)
	assert.Equal(t, int64(60), prompt.ElapsedSeconds)

	// Same multiple never fires twice.
	assert.Nil(t, tr.Tick(t0.Add(60*time.Second)).BreakPrompt)
	assert.Nil(t, tr.Tick(t0.Add(61*time.Second)).BreakPrompt)

	second := tr.Tick(t0.Add(120 * time.Second)).BreakPrompt
	require.NotNil(t, second)
	assert.Equal(t, int64(120), second.ElapsedSeconds)
}

func TestTracker_EndFlushesCounters(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	tr := NewTracker("user-1", testSettings(), t0)

	tr.Tick(t0.Add(1 * time.Second))
	tr.HandleVerdict(incorrect(posture.ReasonSlouching), t0.Add(1500*time.Millisecond))
	tr.Tick(t0.Add(2 * time.Second))
	tr.Tick(t0.Add(5 * time.Second)) // past threshold, raises the alert

	summary := tr.End(t0.Add(6 * time.Second))

	assert.Equal(t, tr.ID(), summary.SessionID)
	assert.Equal(t, int64(1), summary.CorrectSeconds)
	assert.Equal(t, int64(2), summary.IncorrectSeconds)
	assert.Equal(t, 1, summary.AlertsRaised)
	assert.Equal(t, EventSessionEnd, summary.EndEvent.Type)
	assert.True(t, tr.Ended())

	// An ended tracker ignores further input.
	assert.Nil(t, tr.HandleVerdict(correct(), t0.Add(7*time.Second)))
	empty := tr.Tick(t0.Add(7 * time.Second))
	assert.Nil(t, empty.Alert)
	assert.Nil(t, empty.BreakPrompt)
}

func TestTracker_StartEvent(t *testing.T) {
	t0 := time.Date(2025, 11, 19, 9, 0, 0, 0, time.Local)
	tr := NewTracker("user-1", testSettings(), t0)

	ev := tr.StartEvent()
	assert.Equal(t, EventSessionStart, ev.Type)
	assert.Equal(t, t0, ev.Timestamp)
	assert.Equal(t, tr.ID(), ev.SessionID)
}
