// Package service hosts the long-lived runtime services that sit between
// the HTTP layer and the domain: live session tracking and the outbound
// notification queue.
package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/pkg/logger"
)

// maxQueuedPerUser bounds the per-user queue; when the UI stops polling,
// the oldest notifications are dropped first.
const maxQueuedPerUser = 50

// NotificationQueue is an in-memory per-user notification outbox. The core
// never renders notifications; the desktop shell polls and displays them.
type NotificationQueue struct {
	mu     sync.Mutex
	queues map[string][]notification.Notification
	log    *logger.Logger
}

// NewNotificationQueue creates an empty queue.
func NewNotificationQueue(log *logger.Logger) *NotificationQueue {
	return &NotificationQueue{
		queues: make(map[string][]notification.Notification),
		log:    log.With(logger.Component("notifications")),
	}
}

// Notify implements notification.Notifier by enqueueing for the user.
func (q *NotificationQueue) Notify(n notification.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	queue := append(q.queues[n.UserID], n)
	if len(queue) > maxQueuedPerUser {
		q.log.Warn("notification queue overflow, dropping oldest",
			logger.UserID(n.UserID),
		)
		queue = queue[len(queue)-maxQueuedPerUser:]
	}
	q.queues[n.UserID] = queue

	q.log.Debug("notification queued",
		logger.UserID(n.UserID),
		logger.String("kind", string(n.Kind)),
	)

	return nil
}

// Drain returns and clears the user's pending notifications in FIFO order.
func (q *NotificationQueue) Drain(userID string) []notification.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.queues[userID]
	if len(pending) == 0 {
		return nil
	}
	delete(q.queues, userID)
	return pending
}

// Pending returns the queue depth for a user without draining it.
func (q *NotificationQueue) Pending(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[userID])
}
