package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/activebreak/activebreak/internal/application/command"
	"github.com/activebreak/activebreak/internal/application/query"
	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
	"github.com/activebreak/activebreak/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

func withAuthUser(ctx context.Context, u authUser) context.Context {
	return context.WithValue(ctx, contextKeyUser, u)
}

func authUserFrom(ctx context.Context) authUser {
	u, _ := ctx.Value(contextKeyUser).(authUser)
	return u
}

// writeDomainError maps a domain error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err) || errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// parseTimeParam accepts a date ("2006-01-02") or an RFC 3339 timestamp.
// A bare end date extends to the end of that day.
func parseTimeParam(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		if endOfDay {
			return timeutil.EndOfDay(t), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use 2006-01-02 or RFC 3339", value)
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if s.deps.HealthChecker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.HealthChecker.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["storage"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["storage"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION TRACKING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	sessionID, err := s.deps.Sessions.StartSession(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

type frameRequest struct {
	Keypoints []posture.Keypoint `json:"keypoints"`
}

func (s *Server) handleSessionFrame(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	res, err := s.deps.Sessions.SubmitFrame(r.Context(), u.ID, posture.Frame{Keypoints: req.Keypoints})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": res.SessionID,
		"state":      res.State.String(),
		"usable":     res.Usable,
	})
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	summary, err := s.deps.Sessions.EndSession(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        summary.SessionID,
		"started_at":        summary.StartedAt,
		"ended_at":          summary.EndedAt,
		"correct_seconds":   summary.CorrectSeconds,
		"incorrect_seconds": summary.IncorrectSeconds,
		"alerts_raised":     summary.AlertsRaised,
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	status, err := s.deps.Sessions.Status(u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        status.SessionID,
		"started_at":        status.StartedAt,
		"state":             status.State.String(),
		"correct_seconds":   status.CorrectSeconds,
		"incorrect_seconds": status.IncorrectSeconds,
		"alerts_raised":     status.AlertsRaised,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// BREAKS & GAMIFICATION
// ══════════════════════════════════════════════════════════════════════════════

type completeBreakRequest struct {
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	Completed       bool      `json:"completed"`
	QualityFactor   float64   `json:"quality_factor"`
	ResponseTimeSec *float64  `json:"response_time_seconds"`
}

func (s *Server) handleCompleteBreak(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	var req completeBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	cmd := command.CompleteBreakCommand{
		UserID:        u.ID,
		StartedAt:     req.StartedAt,
		EndedAt:       req.EndedAt,
		Completed:     req.Completed,
		QualityFactor: req.QualityFactor,
	}
	if req.ResponseTimeSec != nil {
		rt := time.Duration(*req.ResponseTimeSec * float64(time.Second))
		cmd.ResponseTime = &rt
	}

	res, err := s.deps.CompleteBreak.Handle(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	res, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{
		UserID:       u.ID,
		HistoryLimit: getQueryParamInt(r, "history_limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		PeriodType: getQueryParam(r, "period", "daily"),
		PeriodKey:  r.URL.Query().Get("period_key"),
		Limit:      getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetChallenges(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	res, err := s.deps.GetActiveChallenges.Handle(r.Context(), query.GetActiveChallengesQuery{
		UserID:     u.ID,
		PeriodType: getQueryParam(r, "period", "daily"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	res, err := s.deps.GetSettings.Handle(r.Context(), query.GetSettingsQuery{UserID: u.ID})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type saveSettingsRequest struct {
	Sensitivity           int    `json:"sensitivity"`
	NotificationsEnabled  bool   `json:"notifications_enabled"`
	AlertThresholdSeconds int    `json:"alert_threshold_seconds"`
	BreakIntervalMinutes  int    `json:"break_interval_minutes"`
	CharacterTheme        string `json:"character_theme"`
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	res, err := s.deps.SaveSettings.Handle(r.Context(), command.SaveSettingsCommand{
		UserID:                u.ID,
		Sensitivity:           req.Sensitivity,
		NotificationsEnabled:  req.NotificationsEnabled,
		AlertThresholdSeconds: req.AlertThresholdSeconds,
		BreakIntervalMinutes:  req.BreakIntervalMinutes,
		CharacterTheme:        req.CharacterTheme,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, query.SettingsDTO{
		Sensitivity:           res.Settings.Sensitivity,
		NotificationsEnabled:  res.Settings.NotificationsEnabled,
		AlertThresholdSeconds: res.Settings.AlertThresholdSeconds,
		BreakIntervalMinutes:  res.Settings.BreakIntervalMinutes,
		CharacterTheme:        res.Settings.CharacterTheme,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	from, err := parseTimeParam(r.URL.Query().Get("start_date"), false)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("end_date"), true)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.deps.GetStatistics.Handle(r.Context(), query.GetStatisticsQuery{
		UserID: u.ID,
		From:   from,
		To:     to,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExportStatistics(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	from, err := parseTimeParam(r.URL.Query().Get("start_date"), false)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("end_date"), true)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	q := query.ExportEventsQuery{UserID: u.ID, From: from, To: to}
	if err := q.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="posture_events.csv"`)

	if err := s.deps.ExportEvents.Handle(r.Context(), q, w); err != nil {
		// Headers are already out; log and cut the stream.
		s.logger.Error("csv export failed", logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	pending := s.deps.Notifications.Drain(u.ID)

	out := make([]map[string]any, 0, len(pending))
	for _, n := range pending {
		out = append(out, map[string]any{
			"id":         n.ID,
			"kind":       string(n.Kind),
			"title":      n.Title,
			"body":       n.Body,
			"created_at": n.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())

	users, err := s.deps.ListUsers.Handle(r.Context(), query.ListUsersQuery{ActorID: u.ID})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	u := authUserFrom(r.Context())
	targetID := r.PathValue("id")

	err := s.deps.DeleteUser.Handle(r.Context(), command.DeleteUserCommand{
		ActorID:  u.ID,
		TargetID: targetID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// A deleted account must not keep a usable token.
	s.tokens.Revoke(targetID)

	writeJSON(w, http.StatusOK, map[string]string{"deleted": targetID})
}
