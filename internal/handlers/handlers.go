package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// DefaultSessionDuration is used when none is configured (30 days).
	DefaultSessionDuration = 30 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db              *storage.DB
	accounts        *accounts.Store
	sessionDuration time.Duration
	secureCookie    bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, sessionDuration time.Duration, secureCookie bool) *Handlers {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	return &Handlers{
		db:              db,
		accounts:        accounts.NewStore(db),
		sessionDuration: sessionDuration,
		secureCookie:    secureCookie,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("ValidateSession error")
			}
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < h.sessionDuration/2 {
			if err := h.db.RenewSession(r.Context(), cookie.Value, now.Add(h.sessionDuration)); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		logger := zerolog.Ctx(ctx).With().Int64("user_id", sessionInfo.User.ID).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, errors.New("invalid request body")
	}
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return c, errors.New("username and password are required")
	}
	return c, nil
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.accounts.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Register error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "account created"})
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), c.Username, c.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Authenticate error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate session token")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.db.CreateSession(r.Context(), token, user.ID, time.Now().Add(h.sessionDuration)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to create session")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, user)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
