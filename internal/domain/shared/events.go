// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"

	// Posture events
	EventPostureChanged EventType = "posture.changed"
	EventAlertRaised    EventType = "posture.alert_raised"

	// Break events
	EventBreakPrompted  EventType = "break.prompted"
	EventBreakCompleted EventType = "break.completed"

	// Progress events
	EventXPGained EventType = "progress.xp_gained"
	EventLevelUp  EventType = "progress.level_up"

	// User events
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionStartedEvent is emitted when a tracking session begins.
type SessionStartedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Payload implements Event interface.
func (e SessionStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"session_id": e.SessionID,
	}
}

// NewSessionStartedEvent creates a new SessionStartedEvent.
func NewSessionStartedEvent(userID, sessionID string) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(EventSessionStarted, sessionID),
		UserID:    userID,
		SessionID: sessionID,
	}
}

// SessionEndedEvent is emitted when a tracking session ends.
type SessionEndedEvent struct {
	BaseEvent
	UserID           string        `json:"user_id"`
	SessionID        string        `json:"session_id"`
	Duration         time.Duration `json:"duration"`
	CorrectSeconds   int64         `json:"correct_seconds"`
	IncorrectSeconds int64         `json:"incorrect_seconds"`
	AlertsRaised     int           `json:"alerts_raised"`
}

// Payload implements Event interface.
func (e SessionEndedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"session_id":        e.SessionID,
		"duration":          e.Duration.String(),
		"correct_seconds":   e.CorrectSeconds,
		"incorrect_seconds": e.IncorrectSeconds,
		"alerts_raised":     e.AlertsRaised,
	}
}

// NewSessionEndedEvent creates a new SessionEndedEvent.
func NewSessionEndedEvent(userID, sessionID string, duration time.Duration, correct, incorrect int64, alerts int) SessionEndedEvent {
	return SessionEndedEvent{
		BaseEvent:        NewBaseEvent(EventSessionEnded, sessionID),
		UserID:           userID,
		SessionID:        sessionID,
		Duration:         duration,
		CorrectSeconds:   correct,
		IncorrectSeconds: incorrect,
		AlertsRaised:     alerts,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Posture Events
// ═══════════════════════════════════════════════════════════════════════════

// PostureChangedEvent is emitted when the tracked posture state flips.
type PostureChangedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	NewState  string `json:"new_state"`
	Reason    string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e PostureChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"session_id": e.SessionID,
		"new_state":  e.NewState,
		"reason":     e.Reason,
	}
}

// NewPostureChangedEvent creates a new PostureChangedEvent.
func NewPostureChangedEvent(userID, sessionID, newState, reason string) PostureChangedEvent {
	return PostureChangedEvent{
		BaseEvent: NewBaseEvent(EventPostureChanged, sessionID),
		UserID:    userID,
		SessionID: sessionID,
		NewState:  newState,
		Reason:    reason,
	}
}

// AlertRaisedEvent is emitted when bad posture persists past the alert threshold.
type AlertRaisedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	BadRunSecs  int64  `json:"bad_run_seconds"`
	Reason      string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e AlertRaisedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"session_id":      e.SessionID,
		"bad_run_seconds": e.BadRunSecs,
		"reason":          e.Reason,
	}
}

// NewAlertRaisedEvent creates a new AlertRaisedEvent.
func NewAlertRaisedEvent(userID, sessionID string, badRunSecs int64, reason string) AlertRaisedEvent {
	return AlertRaisedEvent{
		BaseEvent:  NewBaseEvent(EventAlertRaised, sessionID),
		UserID:     userID,
		SessionID:  sessionID,
		BadRunSecs: badRunSecs,
		Reason:     reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Break Events
// ═══════════════════════════════════════════════════════════════════════════

// BreakPromptedEvent is emitted when the break interval elapses during a session.
type BreakPromptedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	ElapsedSecs int64  `json:"elapsed_seconds"`
	Exercise    string `json:"exercise"`
}

// Payload implements Event interface.
func (e BreakPromptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"session_id":      e.SessionID,
		"elapsed_seconds": e.ElapsedSecs,
		"exercise":        e.Exercise,
	}
}

// NewBreakPromptedEvent creates a new BreakPromptedEvent.
func NewBreakPromptedEvent(userID, sessionID string, elapsedSecs int64, exercise string) BreakPromptedEvent {
	return BreakPromptedEvent{
		BaseEvent:   NewBaseEvent(EventBreakPrompted, sessionID),
		UserID:      userID,
		SessionID:   sessionID,
		ElapsedSecs: elapsedSecs,
		Exercise:    exercise,
	}
}

// BreakCompletedEvent is emitted after a guided break is finished and scored.
type BreakCompletedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	BreakID   string `json:"break_id"`
	XPAwarded int    `json:"xp_awarded"`
	NewTotal  int64  `json:"new_total"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
}

// Payload implements Event interface.
func (e BreakCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"break_id":   e.BreakID,
		"xp_awarded": e.XPAwarded,
		"new_total":  e.NewTotal,
		"new_level":  e.NewLevel,
		"leveled_up": e.LeveledUp,
	}
}

// NewBreakCompletedEvent creates a new BreakCompletedEvent.
func NewBreakCompletedEvent(userID, breakID string, xp int, newTotal int64, newLevel int, leveledUp bool) BreakCompletedEvent {
	return BreakCompletedEvent{
		BaseEvent: NewBaseEvent(EventBreakCompleted, breakID),
		UserID:    userID,
		BreakID:   breakID,
		XPAwarded: xp,
		NewTotal:  newTotal,
		NewLevel:  newLevel,
		LeveledUp: leveledUp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a new account is created.
type UserRegisteredEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"email":   e.Email,
		"role":    e.Role,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, email, role string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent: NewBaseEvent(EventUserRegistered, userID),
		UserID:    userID,
		Email:     email,
		Role:      role,
	}
}

// UserDeletedEvent is emitted when an account is removed.
type UserDeletedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	DeletedBy string `json:"deleted_by"`
}

// Payload implements Event interface.
func (e UserDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"deleted_by": e.DeletedBy,
	}
}

// NewUserDeletedEvent creates a new UserDeletedEvent.
func NewUserDeletedEvent(userID, deletedBy string) UserDeletedEvent {
	return UserDeletedEvent{
		BaseEvent: NewBaseEvent(EventUserDeleted, userID),
		UserID:    userID,
		DeletedBy: deletedBy,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
