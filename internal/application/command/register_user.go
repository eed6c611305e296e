// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Creates an account and its default settings row.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data for registering a new account.
type RegisterUserCommand struct {
	// Email is the login email, normalized to lowercase.
	Email string

	// Password is the plaintext password; only its bcrypt hash is stored.
	Password string

	// Role is "admin" or "client"; empty defaults to client.
	Role string

	// FullName is the display name shown on the leaderboard.
	FullName string

	// OrgName is the optional organization name.
	OrgName string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if _, err := shared.NewEmail(c.Email); err != nil {
		return err
	}
	if len(c.Password) < 8 {
		return shared.WrapError("command", "RegisterUser", shared.ErrInvalidInput, "password must be at least 8 characters", nil)
	}
	if _, err := user.ParseRole(c.Role); err != nil {
		return err
	}
	return nil
}

// RegisterUserResult contains the created account.
type RegisterUserResult struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	OrgName   string    `json:"org_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users     user.Repository
	settings  user.SettingsRepository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(
	users user.Repository,
	settings user.SettingsRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:     users,
		settings:  settings,
		publisher: publisher,
		log:       log,
	}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email, _ := shared.NewEmail(cmd.Email)
	role, _ := user.ParseRole(cmd.Role)

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register_user: failed to hash password: %w", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     cmd.FullName,
		OrgName:      cmd.OrgName,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(ctx, u); err != nil {
		return nil, err
	}

	// Default settings exist from the first moment, so the first session
	// never races first settings access.
	defaults := user.DefaultSettings(u.ID)
	defaults.UpdatedAt = u.CreatedAt
	if err := h.settings.Save(ctx, defaults); err != nil {
		h.log.Warn("failed to create default settings",
			logger.UserID(u.ID),
			logger.Err(err),
		)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewUserRegisteredEvent(u.ID, email.String(), string(role)))
	}

	h.log.Info("user registered",
		logger.UserID(u.ID),
		logger.Email(email.String()),
		logger.String("role", string(role)),
	)

	return &RegisterUserResult{
		UserID:    u.ID,
		Email:     email.String(),
		Role:      string(role),
		FullName:  u.FullName,
		OrgName:   u.OrgName,
		CreatedAt: u.CreatedAt,
	}, nil
}
