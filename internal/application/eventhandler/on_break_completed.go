// Package eventhandler contains the subscribers wired onto the in-process
// event bus. They handle the side effects that do not belong in the
// command handlers themselves: celebration notifications, challenge
// completion checks, and similar fan-out.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/activebreak/activebreak/internal/domain/challenge"
	"github.com/activebreak/activebreak/internal/domain/game"
	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// handlerTimeout bounds the repository work done per event. Subscribers
// run off the request path, so a stuck store must not pile up goroutines.
const handlerTimeout = 5 * time.Second

// ══════════════════════════════════════════════════════════════════════════════
// ON BREAK COMPLETED
// Fires after a break is persisted and scored. Produces the level-up
// notification and checks whether the break pushed any active challenge
// over its target.
// ══════════════════════════════════════════════════════════════════════════════

// OnBreakCompleted reacts to break completion events.
type OnBreakCompleted struct {
	games      game.Repository
	challenges challenge.Repository
	notifier   notification.Notifier
	log        *logger.Logger
}

// NewOnBreakCompleted creates the subscriber.
func NewOnBreakCompleted(
	games game.Repository,
	challenges challenge.Repository,
	notifier notification.Notifier,
	log *logger.Logger,
) *OnBreakCompleted {
	return &OnBreakCompleted{
		games:      games,
		challenges: challenges,
		notifier:   notifier,
		log:        log.With(logger.Component("on_break_completed")),
	}
}

// Handler returns the shared.EventHandler to subscribe on the bus.
func (h *OnBreakCompleted) Handler() shared.EventHandler {
	return func(event shared.Event) error {
		e, ok := event.(shared.BreakCompletedEvent)
		if !ok {
			h.log.Warn("unexpected event on break_completed subscription",
				logger.String("event_type", string(event.EventType())),
			)
			return nil
		}
		return h.handle(e)
	}
}

func (h *OnBreakCompleted) handle(e shared.BreakCompletedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if e.LeveledUp {
		h.notify(e.UserID, notification.Notification{
			UserID: e.UserID,
			Kind:   notification.KindLevelUp,
			Title:  fmt.Sprintf("Level %d!", e.NewLevel),
			Body:   fmt.Sprintf("You reached level %d with %d XP. Keep it up.", e.NewLevel, e.NewTotal),
		})
	}

	if err := h.checkChallenges(ctx, e); err != nil {
		h.log.Error("challenge check failed",
			logger.UserID(e.UserID),
			logger.Err(err),
		)
		return err
	}
	return nil
}

// checkChallenges notifies for every active challenge this break pushed
// over its target. Only the crossing break notifies; a challenge that was
// already complete before this break stays silent.
func (h *OnBreakCompleted) checkChallenges(ctx context.Context, e shared.BreakCompletedEvent) error {
	now := e.OccurredAt()

	for _, periodType := range shared.AllPeriodTypes() {
		defs, err := h.challenges.ListActive(ctx, periodType)
		if err != nil {
			return fmt.Errorf("failed to list active challenges: %w", err)
		}
		if len(defs) == 0 {
			continue
		}

		periodKey := game.PeriodKeyFor(periodType, now)
		score, err := h.games.GetScore(ctx, e.UserID, periodType, periodKey)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to load period score: %w", err)
		}

		for _, def := range defs {
			if !crossedTarget(def, score, e) {
				continue
			}
			h.notify(e.UserID, notification.Notification{
				UserID: e.UserID,
				Kind:   notification.KindChallengeComplete,
				Title:  "Challenge complete: " + def.Name,
				Body:   def.Description,
			})
		}
	}
	return nil
}

// crossedTarget reports whether this specific break moved the score from
// below the challenge target to at or above it.
func crossedTarget(def challenge.Challenge, score game.Score, e shared.BreakCompletedEvent) bool {
	if def.TargetValue <= 0 {
		return false
	}

	var value, before int64
	switch def.TargetType {
	case challenge.TargetXPGain:
		value = score.TotalScore
		before = value - int64(e.XPAwarded)
	default:
		value = score.BreaksCount
		before = value - 1
	}
	return value >= def.TargetValue && before < def.TargetValue
}

func (h *OnBreakCompleted) notify(userID string, n notification.Notification) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(n); err != nil {
		h.log.Warn("notification dropped",
			logger.UserID(userID),
			logger.String("kind", string(n.Kind)),
			logger.Err(err),
		)
	}
}
