// Package session implements the live tracking session: the event log,
// the 1 Hz tick state machine, alerting, and break prompting.
package session

import (
	"time"

	"github.com/activebreak/activebreak/internal/domain/posture"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT LOG TYPES
// ══════════════════════════════════════════════════════════════════════════════

// EventType is the type of a logged posture event.
type EventType string

const (
	// EventCorrect marks a transition into correct posture.
	EventCorrect EventType = "correct"

	// EventIncorrect marks a transition into incorrect posture.
	EventIncorrect EventType = "incorrect"

	// EventSessionStart marks the beginning of a tracking session.
	EventSessionStart EventType = "session_start"

	// EventSessionEnd marks the end of a tracking session.
	EventSessionEnd EventType = "session_end"
)

// IsPostureState reports whether the event type carries a posture state
// (as opposed to a session boundary marker).
func (t EventType) IsPostureState() bool {
	return t == EventCorrect || t == EventIncorrect
}

// State converts a posture-state event type back to the classifier state.
// Boundary markers map to correct, the walk's default state.
func (t EventType) State() posture.State {
	if t == EventIncorrect {
		return posture.StateIncorrect
	}
	return posture.StateCorrect
}

// EventTypeForState converts a classifier state into its log event type.
func EventTypeForState(s posture.State) EventType {
	if s == posture.StateIncorrect {
		return EventIncorrect
	}
	return EventCorrect
}

// PostureEvent is one row of the append-only event log. Only transitions
// are logged, never repeated identical verdicts.
type PostureEvent struct {
	ID        string
	UserID    string
	SessionID string
	Type      EventType
	Reason    posture.FailureReason
	Timestamp time.Time
}

// AlertEvent records a raised bad-posture alert.
type AlertEvent struct {
	ID        string
	UserID    string
	SessionID string
	Reason    posture.FailureReason
	Timestamp time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCUMULATED STATS
// ══════════════════════════════════════════════════════════════════════════════

// UserStats holds the lifetime posture counters for a user. Session
// counters are flushed into it additively when a session ends.
type UserStats struct {
	UserID           string
	CorrectSeconds   int64
	IncorrectSeconds int64
	AlertsCount      int64
	UpdatedAt        time.Time
}

// TotalSeconds returns the total tracked time.
func (s UserStats) TotalSeconds() int64 {
	return s.CorrectSeconds + s.IncorrectSeconds
}
