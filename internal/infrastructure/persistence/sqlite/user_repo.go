package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for SQLite.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, full_name, org_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.conn.db.ExecContext(ctx, query,
		u.ID,
		u.Email.String(),
		u.PasswordHash,
		string(u.Role),
		u.FullName,
		u.OrgName,
		toMillis(u.CreatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByID returns a user by internal ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (user.User, error) {
	query := `
		SELECT id, email, password_hash, role, full_name, org_name, created_at
		FROM users
		WHERE id = ?
	`

	return r.scanUser(r.conn.db.QueryRowContext(ctx, query, id))
}

// FindByEmail returns a user by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	query := `
		SELECT id, email, password_hash, role, full_name, org_name, created_at
		FROM users
		WHERE email = ?
	`

	return r.scanUser(r.conn.db.QueryRowContext(ctx, query, email))
}

// ListAll returns every account, newest first.
func (r *UserRepository) ListAll(ctx context.Context) ([]user.User, error) {
	query := `
		SELECT id, email, password_hash, role, full_name, org_name, created_at
		FROM users
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUserFields(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Delete removes a user. Settings, events, scores, progress, and break
// sessions cascade through foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (user.User, error) {
	u, err := scanUserFields(row.Scan)
	if IsNoRows(err) {
		return user.User{}, shared.ErrUserNotFound
	}
	return u, err
}

func scanUserFields(scan func(dest ...any) error) (user.User, error) {
	var u user.User
	var email, role string
	var createdAt int64

	err := scan(&u.ID, &email, &u.PasswordHash, &role, &u.FullName, &u.OrgName, &createdAt)
	if err != nil {
		if IsNoRows(err) {
			return user.User{}, err
		}
		return user.User{}, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = shared.Email(email)
	u.Role = user.Role(role)
	u.CreatedAt = fromMillis(createdAt)

	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SettingsRepository implements user.SettingsRepository for SQLite.
type SettingsRepository struct {
	conn *Connection
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(conn *Connection) *SettingsRepository {
	return &SettingsRepository{conn: conn}
}

// GetOrCreate returns the user's settings, inserting the default row on
// first access.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, userID string) (user.Settings, error) {
	s, err := r.get(ctx, userID)
	if err == nil {
		return s, nil
	}
	if !IsNoRows(err) {
		return user.Settings{}, err
	}

	defaults := user.DefaultSettings(userID)
	defaults.UpdatedAt = time.Now().UTC()
	if err := r.Save(ctx, defaults); err != nil {
		return user.Settings{}, err
	}
	return defaults, nil
}

// Save upserts the user's settings row.
func (r *SettingsRepository) Save(ctx context.Context, s user.Settings) error {
	query := `
		INSERT INTO user_settings (
			user_id, sensitivity, notifications_enabled, alert_threshold_seconds,
			break_interval_minutes, character_theme, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sensitivity = excluded.sensitivity,
			notifications_enabled = excluded.notifications_enabled,
			alert_threshold_seconds = excluded.alert_threshold_seconds,
			break_interval_minutes = excluded.break_interval_minutes,
			character_theme = excluded.character_theme,
			updated_at = excluded.updated_at
	`

	_, err := r.conn.db.ExecContext(ctx, query,
		s.UserID,
		s.Sensitivity,
		boolToInt(s.NotificationsEnabled),
		s.AlertThresholdSeconds,
		s.BreakIntervalMinutes,
		s.CharacterTheme,
		toMillis(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

func (r *SettingsRepository) get(ctx context.Context, userID string) (user.Settings, error) {
	query := `
		SELECT user_id, sensitivity, notifications_enabled, alert_threshold_seconds,
			   break_interval_minutes, character_theme, updated_at
		FROM user_settings
		WHERE user_id = ?
	`

	var s user.Settings
	var notifications int
	var updatedAt int64

	err := r.conn.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.Sensitivity,
		&notifications,
		&s.AlertThresholdSeconds,
		&s.BreakIntervalMinutes,
		&s.CharacterTheme,
		&updatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return user.Settings{}, err
		}
		return user.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	s.NotificationsEnabled = notifications != 0
	s.UpdatedAt = fromMillis(updatedAt)

	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
