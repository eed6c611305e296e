package query

import (
	"context"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SETTINGS QUERY
// First access creates the default row, so callers always get settings.
// ══════════════════════════════════════════════════════════════════════════════

// GetSettingsQuery contains the settings request parameters.
type GetSettingsQuery struct {
	UserID string
}

// SettingsDTO is the per-user preferences payload for the API.
type SettingsDTO struct {
	Sensitivity           int    `json:"sensitivity"`
	NotificationsEnabled  bool   `json:"notifications_enabled"`
	AlertThresholdSeconds int    `json:"alert_threshold_seconds"`
	BreakIntervalMinutes  int    `json:"break_interval_minutes"`
	CharacterTheme        string `json:"character_theme"`
}

// GetSettingsHandler handles the GetSettingsQuery.
type GetSettingsHandler struct {
	settings user.SettingsRepository
	log      *logger.Logger
}

// NewGetSettingsHandler creates a new GetSettingsHandler.
func NewGetSettingsHandler(settings user.SettingsRepository, log *logger.Logger) *GetSettingsHandler {
	return &GetSettingsHandler{settings: settings, log: log}
}

// Handle executes the settings query.
func (h *GetSettingsHandler) Handle(ctx context.Context, q GetSettingsQuery) (*SettingsDTO, error) {
	if q.UserID == "" {
		return nil, shared.WrapError("query", "GetSettings", shared.ErrInvalidInput, "user_id is required", nil)
	}

	s, err := h.settings.GetOrCreate(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	return &SettingsDTO{
		Sensitivity:           s.Sensitivity,
		NotificationsEnabled:  s.NotificationsEnabled,
		AlertThresholdSeconds: s.AlertThresholdSeconds,
		BreakIntervalMinutes:  s.BreakIntervalMinutes,
		CharacterTheme:        s.CharacterTheme,
	}, nil
}
