// Package user contains user accounts, roles, and per-user detection
// settings.
package user

import (
	"strings"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// Role separates the org administrator from regular client accounts.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleClient
}

// ParseRole parses a role string; empty defaults to client.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "client":
		return RoleClient, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", shared.ErrInvalidRole
}

// User is an account. PasswordHash is a bcrypt hash and never leaves the
// persistence/auth layers.
type User struct {
	ID           string
	Email        shared.Email
	PasswordHash string
	Role         Role
	FullName     string
	OrgName      string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Settings defaults. First access to a user's settings creates this row.
const (
	DefaultSensitivity           = 5
	DefaultAlertThresholdSeconds = 3
	DefaultBreakIntervalMinutes  = 30
	DefaultCharacterTheme        = "capy-classic"

	MinAlertThresholdSeconds = 1
	MaxAlertThresholdSeconds = 120
	MinBreakIntervalMinutes  = 1
	MaxBreakIntervalMinutes  = 240
)

// Settings are the per-user detection and notification preferences.
// Changes apply to the NEXT session; a live tracker keeps its snapshot.
type Settings struct {
	UserID                string
	Sensitivity           int
	NotificationsEnabled  bool
	AlertThresholdSeconds int
	BreakIntervalMinutes  int
	CharacterTheme        string
	UpdatedAt             time.Time
}

// DefaultSettings returns the settings created on first access.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:                userID,
		Sensitivity:           DefaultSensitivity,
		NotificationsEnabled:  true,
		AlertThresholdSeconds: DefaultAlertThresholdSeconds,
		BreakIntervalMinutes:  DefaultBreakIntervalMinutes,
		CharacterTheme:        DefaultCharacterTheme,
	}
}

// Normalize clamps every field into its valid range and fills empty
// defaults. Saves always pass through here so the stored row is usable
// as-is by the tracker.
func (s Settings) Normalize() Settings {
	if s.Sensitivity < 1 {
		s.Sensitivity = 1
	}
	if s.Sensitivity > 10 {
		s.Sensitivity = 10
	}
	if s.AlertThresholdSeconds < MinAlertThresholdSeconds {
		s.AlertThresholdSeconds = MinAlertThresholdSeconds
	}
	if s.AlertThresholdSeconds > MaxAlertThresholdSeconds {
		s.AlertThresholdSeconds = MaxAlertThresholdSeconds
	}
	if s.BreakIntervalMinutes < MinBreakIntervalMinutes {
		s.BreakIntervalMinutes = MinBreakIntervalMinutes
	}
	if s.BreakIntervalMinutes > MaxBreakIntervalMinutes {
		s.BreakIntervalMinutes = MaxBreakIntervalMinutes
	}
	if strings.TrimSpace(s.CharacterTheme) == "" {
		s.CharacterTheme = DefaultCharacterTheme
	}
	return s
}
