package query

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST USERS QUERY
// Admin-only account listing, newest first.
// ══════════════════════════════════════════════════════════════════════════════

// ListUsersQuery contains the user listing parameters.
type ListUsersQuery struct {
	// ActorID is the admin requesting the listing.
	ActorID string
}

// UserDTO is one account row for the admin view. Password hashes never
// leave the persistence layer.
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	OrgName   string    `json:"org_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsersHandler handles the ListUsersQuery.
type ListUsersHandler struct {
	users user.Repository
	log   *logger.Logger
}

// NewListUsersHandler creates a new ListUsersHandler.
func NewListUsersHandler(users user.Repository, log *logger.Logger) *ListUsersHandler {
	return &ListUsersHandler{users: users, log: log}
}

// Handle executes the list users query.
func (h *ListUsersHandler) Handle(ctx context.Context, q ListUsersQuery) ([]UserDTO, error) {
	if q.ActorID == "" {
		return nil, shared.WrapError("query", "ListUsers", shared.ErrInvalidInput, "actor_id is required", nil)
	}

	actor, err := h.users.FindByID(ctx, q.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, shared.WrapError("query", "ListUsers", shared.ErrForbidden, "only admins can list accounts", nil)
	}

	users, err := h.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, UserDTO{
			ID:        u.ID,
			Email:     u.Email.String(),
			Role:      string(u.Role),
			FullName:  u.FullName,
			OrgName:   u.OrgName,
			CreatedAt: u.CreatedAt,
		})
	}

	return dtos, nil
}
