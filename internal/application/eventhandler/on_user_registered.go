package eventhandler

import (
	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON USER REGISTERED
// Greets the new account with a short onboarding notification the shell
// shows on first launch.
// ══════════════════════════════════════════════════════════════════════════════

// OnUserRegistered reacts to account creation events.
type OnUserRegistered struct {
	notifier notification.Notifier
	log      *logger.Logger
}

// NewOnUserRegistered creates the subscriber.
func NewOnUserRegistered(notifier notification.Notifier, log *logger.Logger) *OnUserRegistered {
	return &OnUserRegistered{
		notifier: notifier,
		log:      log.With(logger.Component("on_user_registered")),
	}
}

// Handler returns the shared.EventHandler to subscribe on the bus.
func (h *OnUserRegistered) Handler() shared.EventHandler {
	return func(event shared.Event) error {
		e, ok := event.(shared.UserRegisteredEvent)
		if !ok {
			h.log.Warn("unexpected event on user_registered subscription",
				logger.String("event_type", string(event.EventType())),
			)
			return nil
		}

		if h.notifier == nil {
			return nil
		}

		err := h.notifier.Notify(notification.Notification{
			UserID: e.UserID,
			Kind:   notification.KindWelcome,
			Title:  "Welcome to ActiveBreak",
			Body:   "Start a session to begin posture tracking. Your first break earns XP.",
		})
		if err != nil {
			h.log.Warn("welcome notification dropped",
				logger.UserID(e.UserID),
				logger.Err(err),
			)
		}
		return nil
	}
}
