// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a validated, normalized email address.
type Email string

// Basic shape check only. Whether the account exists is decided on login.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NewEmail creates an Email with validation and normalization.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", WrapError("shared", "NewEmail", ErrEmptyValue, "email is required", nil)
	}
	if !emailRegex.MatchString(normalized) {
		return "", WrapError("shared", "NewEmail", ErrInvalidFormat, fmt.Sprintf("invalid email: %q", raw), nil)
	}
	return Email(normalized), nil
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// IsValid checks if the email has a plausible shape.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// ═══════════════════════════════════════════════════════════════════════════
// Period Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// PeriodType identifies a leaderboard/score aggregation window.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// AllPeriodTypes lists every aggregation window a break completion feeds.
func AllPeriodTypes() []PeriodType {
	return []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly}
}

// IsValid checks if the period type is one of the known windows.
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// String returns the string representation.
func (p PeriodType) String() string {
	return string(p)
}

// ParsePeriodType parses a string into a PeriodType. An empty string
// defaults to daily, matching the leaderboard screen's default tab.
func ParsePeriodType(s string) (PeriodType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return PeriodDaily, nil
	case "weekly":
		return PeriodWeekly, nil
	case "monthly":
		return PeriodMonthly, nil
	}
	return "", WrapError("shared", "ParsePeriodType", ErrInvalidInput, fmt.Sprintf("unknown period type: %q", s), nil)
}

// ═══════════════════════════════════════════════════════════════════════════
// Timestamp Helpers
// ═══════════════════════════════════════════════════════════════════════════

// ValidateTimestamp rejects zero and far-future timestamps. A small skew
// allowance covers client clocks being slightly ahead.
func ValidateTimestamp(t time.Time) error {
	if t.IsZero() {
		return WrapError("shared", "ValidateTimestamp", ErrEmptyValue, "timestamp is required", nil)
	}
	if t.After(time.Now().Add(5 * time.Minute)) {
		return WrapError("shared", "ValidateTimestamp", ErrFutureTimestamp, "timestamp is in the future", nil)
	}
	return nil
}
