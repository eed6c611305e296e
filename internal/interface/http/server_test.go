package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/application/command"
	"github.com/activebreak/activebreak/internal/application/query"
	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/internal/domain/user"
	"github.com/activebreak/activebreak/internal/infrastructure/service"
	"github.com/activebreak/activebreak/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]user.User)}
}

func (r *memUserRepo) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email.String() == u.Email.String() {
			return shared.ErrEmailTaken
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, shared.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email.String() == email {
			return u, nil
		}
	}
	return user.User{}, shared.ErrUserNotFound
}

func (r *memUserRepo) ListAll(_ context.Context) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return shared.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type memSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]user.Settings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{settings: make(map[string]user.Settings)}
}

func (r *memSettingsRepo) GetOrCreate(_ context.Context, userID string) (user.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[userID]; ok {
		return s, nil
	}
	s := user.DefaultSettings(userID)
	r.settings[userID] = s
	return s, nil
}

func (r *memSettingsRepo) Save(_ context.Context, s user.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.UserID] = s
	return nil
}

type failingHealthChecker struct{}

func (failingHealthChecker) Ping(context.Context) error { return errors.New("storage down") }

// ══════════════════════════════════════════════════════════════════════════════
// HARNESS
// ══════════════════════════════════════════════════════════════════════════════

func newTestServer(t *testing.T, config Config) *Server {
	t.Helper()

	log := logger.New(logger.Options{Output: io.Discard})
	users := newMemUserRepo()
	settings := newMemSettingsRepo()

	deps := Dependencies{
		RegisterUser:     command.NewRegisterUserHandler(users, settings, nil, log),
		AuthenticateUser: command.NewAuthenticateUserHandler(users, log),
		SaveSettings:     command.NewSaveSettingsHandler(users, settings, log),
		DeleteUser:       command.NewDeleteUserHandler(users, nil, log),
		GetSettings:      query.NewGetSettingsHandler(settings, log),
		ListUsers:        query.NewListUsersHandler(users, log),
		Notifications:    service.NewNotificationQueue(log),
		Logger:           log,
	}
	return NewServer(config, deps)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func register(t *testing.T, s *Server, email, role string) authResponse {
	t.Helper()

	rec, env := doRequest(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"password":  "correct-horse",
		"role":      role,
		"full_name": "Test Person",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	return res
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_AuthFlow(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	created := register(t, s, "worker@example.com", "client")
	assert.Equal(t, "client", created.Role)

	// Duplicate email conflicts.
	rec, env := doRequest(t, s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "worker@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)

	// Wrong password is rejected without leaking which part was wrong.
	rec, _ = doRequest(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "worker@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct login issues a usable token.
	rec, env = doRequest(t, s, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "worker@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login authResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	rec, env = doRequest(t, s, http.MethodGet, "/api/v1/settings", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings query.SettingsDTO
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, user.DefaultSensitivity, settings.Sensitivity)
}

func TestServer_RequiresToken(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/settings", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_SaveSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	u := register(t, s, "worker@example.com", "client")

	rec, env := doRequest(t, s, http.MethodPut, "/api/v1/settings", u.Token, map[string]any{
		"sensitivity":             8,
		"notifications_enabled":   false,
		"alert_threshold_seconds": 10,
		"break_interval_minutes":  45,
		"character_theme":         "capy-space",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var saved query.SettingsDTO
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, 8, saved.Sensitivity)
	assert.False(t, saved.NotificationsEnabled)
	assert.Equal(t, "capy-space", saved.CharacterTheme)

	rec, env = doRequest(t, s, http.MethodGet, "/api/v1/settings", u.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched query.SettingsDTO
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, saved, fetched)
}

func TestServer_AdminEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	admin := register(t, s, "admin@example.com", "admin")
	client := register(t, s, "worker@example.com", "client")

	// Non-admins cannot list accounts.
	rec, _ := doRequest(t, s, http.MethodGet, "/api/v1/admin/users", client.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := doRequest(t, s, http.MethodGet, "/api/v1/admin/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Users []query.UserDTO `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Len(t, listing.Users, 2)

	// Deleting an account also revokes its tokens.
	rec, _ = doRequest(t, s, http.MethodDelete, "/api/v1/admin/users/"+client.UserID, admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/settings", client.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_HealthEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec, _ := doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.deps.HealthChecker = failingHealthChecker{}
	rec, _ = doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitPerMinute = 2
	s := newTestServer(t, config)

	rec, _ := doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "rate_limit_exceeded", env.Error.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2025-11-19", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 19, 0, 0, 0, 0, time.Local), got)

	end, err := parseTimeParam("2025-11-19", true)
	require.NoError(t, err)
	assert.Equal(t, 23, end.Hour())

	ts, err := parseTimeParam("2025-11-19T10:30:00Z", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 19, 10, 30, 0, 0, time.UTC), ts.UTC())

	_, err = parseTimeParam("yesterday", false)
	assert.Error(t, err)

	zero, err := parseTimeParam("", false)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}
