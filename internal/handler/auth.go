package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/middleware"
)

type AuthHandler struct {
	auth       *auth.Service
	tokens     *auth.Tokens
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthHandler builds the auth endpoints. tokens may be nil, in which case
// bearer token issuance is disabled.
func NewAuthHandler(svc *auth.Service, tokens *auth.Tokens, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, tokens: tokens, sessionTTL: sessionTTL, logger: logger}
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// Register creates an account and signs the new person in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password); err != nil {
		writeServiceError(w, h.logger, err, "register")
		return
	}
	p, sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "log in")
		return
	}

	h.logger.Info("person registered", "person_id", p.ID)
	h.setSessionCookie(w, r, sess.Token)
	writeJSON(w, http.StatusCreated, p)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	p, sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "log in")
		return
	}

	h.setSessionCookie(w, r, sess.Token)
	writeJSON(w, http.StatusOK, p)
}

// IssueToken exchanges email and password for a bearer token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeError(w, http.StatusNotFound, "bearer tokens are disabled")
		return
	}
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "log in")
		return
	}
	token, expires, err := h.tokens.Issue(p.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "issue token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires,
	})
}

// Logout ends the cookie session, if the request has one. Bearer tokens
// simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok && ac.SessionID != 0 {
		if err := h.auth.Logout(r.Context(), ac.SessionID); err != nil {
			writeServiceError(w, h.logger, err, "log out")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.Person(r.Context(), personID(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "load account")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
