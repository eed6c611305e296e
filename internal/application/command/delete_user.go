package command

import (
	"context"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE USER COMMAND
// Admin-only account removal. Settings, events, scores, progress, and
// break history cascade in the store.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteUserCommand removes an account.
type DeleteUserCommand struct {
	// ActorID is the admin performing the deletion.
	ActorID string

	// TargetID is the account to remove.
	TargetID string
}

// Validate validates the command.
func (c DeleteUserCommand) Validate() error {
	if c.ActorID == "" || c.TargetID == "" {
		return shared.WrapError("command", "DeleteUser", shared.ErrInvalidInput, "actor_id and target_id are required", nil)
	}
	if c.ActorID == c.TargetID {
		return shared.WrapError("command", "DeleteUser", shared.ErrInvalidInput, "admins cannot delete their own account", nil)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// DeleteUserHandler handles the DeleteUserCommand.
type DeleteUserHandler struct {
	users     user.Repository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewDeleteUserHandler creates a new DeleteUserHandler.
func NewDeleteUserHandler(users user.Repository, publisher shared.EventPublisher, log *logger.Logger) *DeleteUserHandler {
	return &DeleteUserHandler{users: users, publisher: publisher, log: log}
}

// Handle executes the delete user command.
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd DeleteUserCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	actor, err := h.users.FindByID(ctx, cmd.ActorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return shared.WrapError("command", "DeleteUser", shared.ErrForbidden, "only admins can delete accounts", nil)
	}

	if err := h.users.Delete(ctx, cmd.TargetID); err != nil {
		return err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewUserDeletedEvent(cmd.TargetID, cmd.ActorID))
	}

	h.log.Info("user deleted",
		logger.UserID(cmd.TargetID),
		logger.String("deleted_by", cmd.ActorID),
	)

	return nil
}
