package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/pantry"
	"github.com/dukerupert/groceryguru/internal/recipe"
	ws "github.com/dukerupert/groceryguru/internal/websocket"
)

const maxJSONBody = 1 << 20

// Broadcaster pushes change notifications to one person's live connections.
type Broadcaster interface {
	BroadcastTo(personID int64, msg ws.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastTo(int64, ws.Message) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeServiceError maps service errors to a status code. Anything it does
// not recognize is logged and reported as a generic failure to do what.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, what string) {
	var verr *pantry.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, pantry.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, recipe.ErrFetch):
		logger.Warn(what, "error", err)
		writeError(w, http.StatusBadGateway, "could not fetch recipe page")
	default:
		logger.Error(what, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+what)
	}
}

// quantity accepts a JSON number or string. Anything unparseable becomes 1.
type quantity int

func (q *quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		s = string(b)
	}
	*q = quantity(pantry.ParseQuantity(s))
	return nil
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func personID(r *http.Request) int64 {
	return auth.PersonID(r.Context())
}
