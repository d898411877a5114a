package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/model"
)

const SessionCookieName = "groceryguru_session"

// SessionResolver looks up a live session by its cookie value.
type SessionResolver interface {
	Session(ctx context.Context, token string) (*model.Session, error)
}

// TokenVerifier checks a bearer token and returns the person it was issued to.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// RequireAuth accepts either an `Authorization: Bearer` token or the session
// cookie and populates AuthContext. A request that presents a bearer header
// is judged on the token alone. tokens may be nil to disable bearer auth.
func RequireAuth(sessions SessionResolver, tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := authenticate(r, sessions, tokens)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func authenticate(r *http.Request, sessions SessionResolver, tokens TokenVerifier) (auth.AuthContext, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, found := strings.CutPrefix(h, "Bearer ")
		if !found || tokens == nil {
			return auth.AuthContext{}, false
		}
		personID, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			return auth.AuthContext{}, false
		}
		return auth.AuthContext{PersonID: personID}, true
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AuthContext{}, false
	}
	sess, err := sessions.Session(r.Context(), cookie.Value)
	if err != nil || sess == nil {
		return auth.AuthContext{}, false
	}
	return auth.AuthContext{PersonID: sess.PersonID, SessionID: sess.ID}, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
