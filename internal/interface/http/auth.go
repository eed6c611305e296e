package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/activebreak/activebreak/internal/application/command"
)

// tokenTTL is how long a bearer token stays valid after login.
const tokenTTL = 24 * time.Hour

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN STORE
// Opaque bearer tokens held in memory. The server is a single local
// process, so tokens do not need to survive restarts; a restart just
// means logging in again.
// ══════════════════════════════════════════════════════════════════════════════

// authUser identifies the authenticated caller.
type authUser struct {
	ID    string
	Role  string
	Email string
}

type tokenEntry struct {
	user      authUser
	expiresAt time.Time
}

type tokenStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenEntry
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]tokenEntry)}
}

// Issue creates a fresh token for the user.
func (ts *tokenStore) Issue(u authUser) string {
	token := uuid.NewString()

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tokens[token] = tokenEntry{user: u, expiresAt: time.Now().Add(tokenTTL)}
	return token
}

// Resolve returns the user for a token, if it is valid and unexpired.
func (ts *tokenStore) Resolve(token string) (authUser, bool) {
	ts.mu.RLock()
	entry, ok := ts.tokens[token]
	ts.mu.RUnlock()

	if !ok {
		return authUser{}, false
	}
	if time.Now().After(entry.expiresAt) {
		ts.mu.Lock()
		delete(ts.tokens, token)
		ts.mu.Unlock()
		return authUser{}, false
	}
	return entry.user, true
}

// Revoke drops every token belonging to the user. Used on account
// deletion.
func (ts *tokenStore) Revoke(userID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for token, entry := range ts.tokens {
		if entry.user.ID == userID {
			delete(ts.tokens, token)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// authed requires a valid bearer token and puts the caller on the context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		u, ok := s.tokens.Resolve(token)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := withAuthUser(r.Context(), u)
		next(w, r.WithContext(ctx))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	OrgName  string `json:"org_name"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// handleRegister creates an account and logs it in immediately.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	res, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
		OrgName:  req.OrgName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	u := authUser{ID: res.UserID, Role: res.Role, Email: res.Email}
	writeJSON(w, http.StatusCreated, authResponse{
		Token:  s.tokens.Issue(u),
		UserID: res.UserID,
		Email:  res.Email,
		Role:   res.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and issues a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	res, err := s.deps.AuthenticateUser.Handle(r.Context(), command.AuthenticateUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	u := authUser{
		ID:    res.User.ID,
		Role:  string(res.User.Role),
		Email: res.User.Email.String(),
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token:  s.tokens.Issue(u),
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	})
}
