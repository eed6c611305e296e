package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/activebreak/activebreak/internal/domain/posture"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Settings is the tracker's immutable snapshot of the user's detection
// settings. A running session keeps the snapshot it was started with;
// settings saved mid-session apply to the next one.
type Settings struct {
	Sensitivity           int
	AlertThresholdSeconds int
	BreakIntervalMinutes  int
	NotificationsEnabled  bool
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// Tracker is the per-session posture state machine. It is a pure state
// holder: all inputs carry explicit timestamps and all outputs are returned
// as values for the caller to persist/dispatch. It is NOT safe for
// concurrent use; the runtime service serializes access.
type Tracker struct {
	id        string
	userID    string
	settings  Settings
	startedAt time.Time
	ended     bool

	// Current posture state. Sessions start in correct posture; the state
	// only flips on an explicit verdict, unusable frames hold it.
	state  posture.State
	reason posture.FailureReason

	// 1 Hz counters.
	correctSeconds   int64
	incorrectSeconds int64
	alertsRaised     int

	// Alert latch for the current bad-posture run.
	badRunStart  time.Time
	alertLatched bool

	// Break prompts already fired, keyed by the elapsed-seconds multiple.
	breaksFired map[int64]bool
}

// NewTracker creates a tracker for a freshly started session.
func NewTracker(userID string, settings Settings, startedAt time.Time) *Tracker {
	return &Tracker{
		id:          uuid.NewString(),
		userID:      userID,
		settings:    settings,
		startedAt:   startedAt,
		state:       posture.StateCorrect,
		breaksFired: make(map[int64]bool),
	}
}

// ID returns the session identifier.
func (t *Tracker) ID() string { return t.id }

// UserID returns the owning user's identifier.
func (t *Tracker) UserID() string { return t.userID }

// StartedAt returns when the session began.
func (t *Tracker) StartedAt() time.Time { return t.startedAt }

// State returns the current posture state.
func (t *Tracker) State() posture.State { return t.state }

// Settings returns the session's settings snapshot.
func (t *Tracker) Settings() Settings { return t.settings }

// Counters returns the current 1 Hz counters.
func (t *Tracker) Counters() (correctSeconds, incorrectSeconds int64, alertsRaised int) {
	return t.correctSeconds, t.incorrectSeconds, t.alertsRaised
}

// StartEvent returns the SessionStart log row for this session.
func (t *Tracker) StartEvent() PostureEvent {
	return PostureEvent{
		ID:        uuid.NewString(),
		UserID:    t.userID,
		SessionID: t.id,
		Type:      EventSessionStart,
		Timestamp: t.startedAt,
	}
}

// HandleVerdict applies a classifier verdict. It returns the transition
// event to log, or nil when the verdict repeats the current state.
func (t *Tracker) HandleVerdict(v posture.Verdict, now time.Time) *PostureEvent {
	if t.ended || v.State == t.state {
		// Repeated verdicts refresh the reason but log nothing.
		t.reason = v.Reason
		return nil
	}

	t.state = v.State
	t.reason = v.Reason

	if v.State == posture.StateIncorrect {
		t.badRunStart = now
		t.alertLatched = false
	} else {
		t.badRunStart = time.Time{}
		t.alertLatched = false
	}

	return &PostureEvent{
		ID:        uuid.NewString(),
		UserID:    t.userID,
		SessionID: t.id,
		Type:      EventTypeForState(v.State),
		Reason:    v.Reason,
		Timestamp: now,
	}
}

// TickResult carries the side effects of one 1 Hz tick.
type TickResult struct {
	// Alert is non-nil when this tick raised the one alert for the
	// current bad-posture run.
	Alert *AlertEvent

	// BreakPrompt is non-nil when the break interval elapsed on this tick.
	BreakPrompt *BreakPrompt
}

// BreakPrompt signals that the user should be offered a guided break.
type BreakPrompt struct {
	UserID         string
	SessionID      string
	ElapsedSeconds int64
	Timestamp      time.Time
}

// Tick advances the 1 Hz counters and evaluates the alert and break rules.
func (t *Tracker) Tick(now time.Time) TickResult {
	if t.ended {
		return TickResult{}
	}

	if t.state == posture.StateCorrect {
		t.correctSeconds++
	} else {
		t.incorrectSeconds++
	}

	var result TickResult

	// Alert rule: one alert per bad-posture run, once the run has lasted
	// strictly longer than the threshold.
	if t.state == posture.StateIncorrect && !t.alertLatched && !t.badRunStart.IsZero() {
		threshold := time.Duration(t.settings.AlertThresholdSeconds) * time.Second
		if now.Sub(t.badRunStart) > threshold {
			t.alertLatched = true
			t.alertsRaised++
			result.Alert = &AlertEvent{
				ID:        uuid.NewString(),
				UserID:    t.userID,
				SessionID: t.id,
				Reason:    t.reason,
				Timestamp: now,
			}
		}
	}

	// Break rule: fire at each positive multiple of the break interval,
	// exactly once per multiple.
	if t.settings.BreakIntervalMinutes > 0 {
		intervalSecs := int64(t.settings.BreakIntervalMinutes) * 60
		elapsed := int64(now.Sub(t.startedAt) / time.Second)
		if elapsed > 0 && elapsed%intervalSecs == 0 && !t.breaksFired[elapsed] {
			t.breaksFired[elapsed] = true
			result.BreakPrompt = &BreakPrompt{
				UserID:         t.userID,
				SessionID:      t.id,
				ElapsedSeconds: elapsed,
				Timestamp:      now,
			}
		}
	}

	return result
}

// Summary is the final accounting of an ended session.
type Summary struct {
	SessionID        string
	UserID           string
	StartedAt        time.Time
	EndedAt          time.Time
	CorrectSeconds   int64
	IncorrectSeconds int64
	AlertsRaised     int
	EndEvent         PostureEvent
}

// End closes the session and returns the summary whose counters must be
// flushed additively into the user's lifetime stats.
func (t *Tracker) End(now time.Time) Summary {
	t.ended = true
	return Summary{
		SessionID:        t.id,
		UserID:           t.userID,
		StartedAt:        t.startedAt,
		EndedAt:          now,
		CorrectSeconds:   t.correctSeconds,
		IncorrectSeconds: t.incorrectSeconds,
		AlertsRaised:     t.alertsRaised,
		EndEvent: PostureEvent{
			ID:        uuid.NewString(),
			UserID:    t.userID,
			SessionID: t.id,
			Type:      EventSessionEnd,
			Timestamp: now,
		},
	}
}

// Ended reports whether End was called.
func (t *Tracker) Ended() bool { return t.ended }
