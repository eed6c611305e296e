package user

import (
	"context"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts a new user. Returns shared.ErrEmailTaken when the
	// email is already registered.
	Create(ctx context.Context, u User) error

	// FindByID returns the user by id, or shared.ErrUserNotFound.
	FindByID(ctx context.Context, id string) (User, error)

	// FindByEmail returns the user by normalized email, or
	// shared.ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (User, error)

	// ListAll returns every account, newest first. Admin only.
	ListAll(ctx context.Context) ([]User, error)

	// Delete removes the user and cascades their settings, events,
	// scores, progress, and break sessions.
	Delete(ctx context.Context, id string) error
}

// SettingsRepository persists per-user settings.
type SettingsRepository interface {
	// GetOrCreate returns the user's settings, creating the default row
	// on first access.
	GetOrCreate(ctx context.Context, userID string) (Settings, error)

	// Save upserts the user's settings (already normalized).
	Save(ctx context.Context, s Settings) error
}
