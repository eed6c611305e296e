package command

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE USER COMMAND
// Verifies credentials at login. Unknown email and wrong password return
// the same invalid-credentials error so the response does not leak which
// accounts exist.
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateUserCommand contains login credentials.
type AuthenticateUserCommand struct {
	Email    string
	Password string
}

// Validate validates the command.
func (c AuthenticateUserCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return shared.WrapError("command", "AuthenticateUser", shared.ErrInvalidInput, "email and password are required", nil)
	}
	return nil
}

// AuthenticateUserResult contains the authenticated account.
type AuthenticateUserResult struct {
	User user.User
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateUserHandler handles the AuthenticateUserCommand.
type AuthenticateUserHandler struct {
	users user.Repository
	log   *logger.Logger
}

// NewAuthenticateUserHandler creates a new AuthenticateUserHandler.
func NewAuthenticateUserHandler(users user.Repository, log *logger.Logger) *AuthenticateUserHandler {
	return &AuthenticateUserHandler{users: users, log: log}
}

// Handle executes the authenticate user command.
func (h *AuthenticateUserHandler) Handle(ctx context.Context, cmd AuthenticateUserCommand) (*AuthenticateUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	u, err := h.users.FindByEmail(ctx, email.String())
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cmd.Password)); err != nil {
		h.log.Warn("login rejected", logger.Email(email.String()))
		return nil, shared.ErrInvalidCredentials
	}

	return &AuthenticateUserResult{User: u}, nil
}
