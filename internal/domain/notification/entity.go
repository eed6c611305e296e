// Package notification contains the desktop notification model. The core
// service does not render notifications itself; it queues them for the UI
// shell to display.
package notification

import (
	"math/rand"
	"time"
)

// Kind classifies a notification for the UI.
type Kind string

const (
	// KindPostureAlert nags about sustained bad posture.
	KindPostureAlert Kind = "posture_alert"

	// KindBreakPrompt invites the user to take a guided break.
	KindBreakPrompt Kind = "break_prompt"

	// KindLevelUp celebrates crossing a level boundary.
	KindLevelUp Kind = "level_up"

	// KindChallengeComplete celebrates finishing a challenge.
	KindChallengeComplete Kind = "challenge_complete"

	// KindWelcome greets a freshly registered account.
	KindWelcome Kind = "welcome"
)

// Notification is one message for the user's desktop shell.
type Notification struct {
	ID        string
	UserID    string
	Kind      Kind
	Title     string
	Body      string
	CreatedAt time.Time
}

// Notifier delivers notifications. Implementations must respect the user's
// notificationsEnabled setting upstream; a Notifier just delivers.
type Notifier interface {
	Notify(n Notification) error
}

// ══════════════════════════════════════════════════════════════════════════════
// BREAK EXERCISES
// ══════════════════════════════════════════════════════════════════════════════

// Exercise is a short guided-break suggestion included in break prompts.
type Exercise struct {
	Name        string
	Description string
}

// exercises is the fixed suggestion catalog.
var exercises = []Exercise{
	{Name: "Neck roll", Description: "Slowly roll your neck in a full circle, twice in each direction."},
	{Name: "Shoulder stretch", Description: "Pull each arm across your chest and hold for 15 seconds."},
	{Name: "Wrist stretch", Description: "Extend an arm, palm up, and gently pull the fingers back."},
	{Name: "Distant gaze", Description: "Look at something at least 6 meters away for 20 seconds."},
}

// Exercises returns the full suggestion catalog.
func Exercises() []Exercise {
	out := make([]Exercise, len(exercises))
	copy(out, exercises)
	return out
}

// RandomExercise picks a suggestion for a break prompt.
func RandomExercise(rng *rand.Rand) Exercise {
	if rng == nil {
		return exercises[rand.Intn(len(exercises))]
	}
	return exercises[rng.Intn(len(exercises))]
}
