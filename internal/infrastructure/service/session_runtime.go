package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/activebreak/activebreak/internal/domain/notification"
	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION RUNTIME
// Owns the live trackers, one per user. Frames arrive over HTTP; a 1 Hz
// ticker drives the counters, alerts, and break prompts. The tracker
// itself is not concurrency-safe, so every access goes through the
// per-session mutex.
// ══════════════════════════════════════════════════════════════════════════════

// SessionRuntime manages the active tracking sessions.
type SessionRuntime struct {
	events    session.EventRepository
	stats     session.StatsRepository
	settings  user.SettingsRepository
	notifier  notification.Notifier
	publisher shared.EventPublisher
	log       *logger.Logger

	tickInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*activeSession
	rng      *rand.Rand
	closed   bool
}

// activeSession pairs a tracker with its ticker goroutine.
type activeSession struct {
	mu      sync.Mutex
	tracker *session.Tracker
	cancel  context.CancelFunc
	done    chan struct{}
}

// RuntimeOptions configures the SessionRuntime.
type RuntimeOptions struct {
	Events    session.EventRepository
	Stats     session.StatsRepository
	Settings  user.SettingsRepository
	Notifier  notification.Notifier
	Publisher shared.EventPublisher
	Logger    *logger.Logger

	// TickInterval overrides the 1 Hz tick. Zero means one second.
	TickInterval time.Duration
}

// NewSessionRuntime creates a runtime with no active sessions.
func NewSessionRuntime(opts RuntimeOptions) *SessionRuntime {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}

	return &SessionRuntime{
		events:       opts.Events,
		stats:        opts.Stats,
		settings:     opts.Settings,
		notifier:     opts.Notifier,
		publisher:    opts.Publisher,
		log:          opts.Logger.With(logger.Component("session_runtime")),
		tickInterval: opts.TickInterval,
		sessions:     make(map[string]*activeSession),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartSession begins tracking for a user. The settings snapshot is taken
// here; saves during the session do not affect it.
func (r *SessionRuntime) StartSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", shared.WrapError("service", "StartSession", shared.ErrInvalidInput, "user_id is required", nil)
	}

	settings, err := r.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load settings snapshot: %w", err)
	}

	snapshot := session.Settings{
		Sensitivity:           settings.Sensitivity,
		AlertThresholdSeconds: settings.AlertThresholdSeconds,
		BreakIntervalMinutes:  settings.BreakIntervalMinutes,
		NotificationsEnabled:  settings.NotificationsEnabled,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", shared.WrapError("service", "StartSession", shared.ErrServiceUnavailable, "runtime is shut down", nil)
	}
	if _, active := r.sessions[userID]; active {
		r.mu.Unlock()
		return "", shared.ErrSessionAlreadyActive
	}

	tracker := session.NewTracker(userID, snapshot, time.Now())
	tickCtx, cancel := context.WithCancel(context.Background())
	active := &activeSession{
		tracker: tracker,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.sessions[userID] = active
	r.mu.Unlock()

	if err := r.events.InsertPostureEvent(ctx, tracker.StartEvent()); err != nil {
		r.removeSession(userID)
		cancel()
		close(active.done)
		return "", fmt.Errorf("failed to log session start: %w", err)
	}

	if r.publisher != nil {
		_ = r.publisher.Publish(shared.NewSessionStartedEvent(userID, tracker.ID()))
	}

	go r.tickLoop(tickCtx, active)

	r.log.Info("session started",
		logger.UserID(userID),
		logger.SessionID(tracker.ID()),
	)

	return tracker.ID(), nil
}

// FrameResult reports the tracker state after a submitted frame.
type FrameResult struct {
	SessionID string
	State     posture.State
	Usable    bool
}

// SubmitFrame classifies one pose frame for the user's active session.
// Unusable frames hold the last state instead of flipping it.
func (r *SessionRuntime) SubmitFrame(ctx context.Context, userID string, frame posture.Frame) (FrameResult, error) {
	active, err := r.lookup(userID)
	if err != nil {
		return FrameResult{}, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()

	tracker := active.tracker
	if tracker.Ended() {
		return FrameResult{}, shared.ErrNoActiveSession
	}

	verdict, usable := posture.Classify(frame, tracker.Settings().Sensitivity)
	result := FrameResult{SessionID: tracker.ID(), Usable: usable}
	if !usable {
		result.State = tracker.State()
		return result, nil
	}

	now := time.Now()
	if transition := tracker.HandleVerdict(verdict, now); transition != nil {
		if err := r.events.InsertPostureEvent(ctx, *transition); err != nil {
			return FrameResult{}, fmt.Errorf("failed to log posture transition: %w", err)
		}
		if r.publisher != nil {
			_ = r.publisher.Publish(shared.NewPostureChangedEvent(
				userID, tracker.ID(), verdict.State.String(), string(verdict.Reason),
			))
		}
	}

	result.State = tracker.State()
	return result, nil
}

// SessionStatus is a point-in-time view of an active session.
type SessionStatus struct {
	SessionID        string
	StartedAt        time.Time
	State            posture.State
	CorrectSeconds   int64
	IncorrectSeconds int64
	AlertsRaised     int
}

// Status returns the live counters for the user's active session.
func (r *SessionRuntime) Status(userID string) (SessionStatus, error) {
	active, err := r.lookup(userID)
	if err != nil {
		return SessionStatus{}, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()

	tracker := active.tracker
	correct, incorrect, alerts := tracker.Counters()
	return SessionStatus{
		SessionID:        tracker.ID(),
		StartedAt:        tracker.StartedAt(),
		State:            tracker.State(),
		CorrectSeconds:   correct,
		IncorrectSeconds: incorrect,
		AlertsRaised:     alerts,
	}, nil
}

// EndSession stops tracking and flushes the session counters additively
// into the user's lifetime stats.
func (r *SessionRuntime) EndSession(ctx context.Context, userID string) (session.Summary, error) {
	active, err := r.lookup(userID)
	if err != nil {
		return session.Summary{}, err
	}

	active.cancel()

	active.mu.Lock()
	if active.tracker.Ended() {
		active.mu.Unlock()
		return session.Summary{}, shared.ErrSessionAlreadyEnded
	}
	summary := active.tracker.End(time.Now())
	active.mu.Unlock()

	r.removeSession(userID)
	<-active.done

	if err := r.events.InsertPostureEvent(ctx, summary.EndEvent); err != nil {
		return session.Summary{}, fmt.Errorf("failed to log session end: %w", err)
	}

	if err := r.stats.AccumulateStats(ctx, userID, summary.CorrectSeconds, summary.IncorrectSeconds, int64(summary.AlertsRaised)); err != nil {
		return session.Summary{}, fmt.Errorf("failed to flush session stats: %w", err)
	}

	if r.publisher != nil {
		_ = r.publisher.Publish(shared.NewSessionEndedEvent(
			userID, summary.SessionID,
			summary.EndedAt.Sub(summary.StartedAt),
			summary.CorrectSeconds, summary.IncorrectSeconds, summary.AlertsRaised,
		))
	}

	r.log.Info("session ended",
		logger.UserID(userID),
		logger.SessionID(summary.SessionID),
		logger.Int64("correct_seconds", summary.CorrectSeconds),
		logger.Int64("incorrect_seconds", summary.IncorrectSeconds),
		logger.Int("alerts", summary.AlertsRaised),
	)

	return summary, nil
}

// Close ends every active session. Used on server shutdown so no tracked
// time is lost.
func (r *SessionRuntime) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	r.mu.Unlock()

	for _, userID := range users {
		if _, err := r.EndSession(ctx, userID); err != nil {
			r.log.Warn("failed to end session on shutdown",
				logger.UserID(userID),
				logger.Err(err),
			)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tick loop
// ─────────────────────────────────────────────────────────────────────────────

// tickLoop drives the tracker's 1 Hz rules until the session ends.
func (r *SessionRuntime) tickLoop(ctx context.Context, active *activeSession) {
	defer close(active.done)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.tick(active, now)
		}
	}
}

// tick applies one tick and dispatches its side effects.
func (r *SessionRuntime) tick(active *activeSession, now time.Time) {
	active.mu.Lock()
	tracker := active.tracker
	if tracker.Ended() {
		active.mu.Unlock()
		return
	}
	result := tracker.Tick(now)
	userID := tracker.UserID()
	sessionID := tracker.ID()
	notificationsOn := tracker.Settings().NotificationsEnabled
	reason := ""
	if result.Alert != nil {
		reason = string(result.Alert.Reason)
	}
	active.mu.Unlock()

	ctx, cancelPersist := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPersist()

	if result.Alert != nil {
		if err := r.events.InsertAlertEvent(ctx, *result.Alert); err != nil {
			r.log.Error("failed to log alert",
				logger.UserID(userID),
				logger.Err(err),
			)
		}
		if r.publisher != nil {
			_ = r.publisher.Publish(shared.NewAlertRaisedEvent(userID, sessionID, 0, reason))
		}
		if notificationsOn {
			r.notify(notification.Notification{
				UserID: userID,
				Kind:   notification.KindPostureAlert,
				Title:  "Check your posture",
				Body:   alertBody(result.Alert.Reason),
			})
		}
	}

	if result.BreakPrompt != nil {
		exercise := notification.RandomExercise(r.rng)
		if r.publisher != nil {
			_ = r.publisher.Publish(shared.NewBreakPromptedEvent(
				userID, sessionID, result.BreakPrompt.ElapsedSeconds, exercise.Name,
			))
		}
		if notificationsOn {
			r.notify(notification.Notification{
				UserID: userID,
				Kind:   notification.KindBreakPrompt,
				Title:  "Time for a break: " + exercise.Name,
				Body:   exercise.Description,
			})
		}
	}
}

func (r *SessionRuntime) notify(n notification.Notification) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(n); err != nil {
		r.log.Warn("notification delivery failed",
			logger.UserID(n.UserID),
			logger.Err(err),
		)
	}
}

// alertBody renders the failure reason for the notification text.
func alertBody(reason posture.FailureReason) string {
	switch reason {
	case posture.ReasonHeadOffCenter:
		return "Your head drifted off center. Re-align with your screen."
	case posture.ReasonSlouching:
		return "You are slouching. Sit up straight."
	case posture.ReasonShouldersTilted:
		return "Your shoulders are tilted. Level them out."
	}
	return "Your posture needs attention."
}

// ─────────────────────────────────────────────────────────────────────────────
// Session map helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *SessionRuntime) lookup(userID string) (*activeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, ok := r.sessions[userID]
	if !ok {
		return nil, shared.ErrNoActiveSession
	}
	return active, nil
}

func (r *SessionRuntime) removeSession(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}
