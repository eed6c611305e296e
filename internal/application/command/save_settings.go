package command

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE SETTINGS COMMAND
// Persists a user's detection and notification preferences. Live sessions
// keep the snapshot they started with; saved values apply to the next one.
// ══════════════════════════════════════════════════════════════════════════════

// SaveSettingsCommand contains the new settings values. Fields are always
// full values, not patches; the UI sends the whole settings form.
type SaveSettingsCommand struct {
	UserID                string
	Sensitivity           int
	NotificationsEnabled  bool
	AlertThresholdSeconds int
	BreakIntervalMinutes  int
	CharacterTheme        string
}

// Validate validates the command.
func (c SaveSettingsCommand) Validate() error {
	if c.UserID == "" {
		return shared.WrapError("command", "SaveSettings", shared.ErrInvalidInput, "user_id is required", nil)
	}
	return nil
}

// SaveSettingsResult contains the normalized settings as stored.
type SaveSettingsResult struct {
	Settings user.Settings
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SaveSettingsHandler handles the SaveSettingsCommand.
type SaveSettingsHandler struct {
	users    user.Repository
	settings user.SettingsRepository
	log      *logger.Logger
}

// NewSaveSettingsHandler creates a new SaveSettingsHandler.
func NewSaveSettingsHandler(users user.Repository, settings user.SettingsRepository, log *logger.Logger) *SaveSettingsHandler {
	return &SaveSettingsHandler{users: users, settings: settings, log: log}
}

// Handle executes the save settings command. Out-of-range values are
// clamped, not rejected.
func (h *SaveSettingsHandler) Handle(ctx context.Context, cmd SaveSettingsCommand) (*SaveSettingsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.users.FindByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}

	s := user.Settings{
		UserID:                cmd.UserID,
		Sensitivity:           cmd.Sensitivity,
		NotificationsEnabled:  cmd.NotificationsEnabled,
		AlertThresholdSeconds: cmd.AlertThresholdSeconds,
		BreakIntervalMinutes:  cmd.BreakIntervalMinutes,
		CharacterTheme:        cmd.CharacterTheme,
		UpdatedAt:             time.Now().UTC(),
	}.Normalize()

	if err := h.settings.Save(ctx, s); err != nil {
		return nil, err
	}

	h.log.Info("settings saved",
		logger.UserID(cmd.UserID),
		logger.Int("sensitivity", s.Sensitivity),
		logger.Int("alert_threshold_seconds", s.AlertThresholdSeconds),
		logger.Int("break_interval_minutes", s.BreakIntervalMinutes),
	)

	return &SaveSettingsResult{Settings: s}, nil
}
