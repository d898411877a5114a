package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/groceryguru/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and runs it as a Hub
// client for the current person. originPatterns restricts cross-origin
// upgrades; an empty list only allows same-host origins.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID := auth.PersonID(r.Context())
		if personID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, personID).Run(r.Context())
	}
}
