// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	xglog "github.com/agentdeck/agentdeck/internal/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy for upgrades; localhost is allowed for the dev UI.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		host := r.Host
		if after, ok := strings.CutPrefix(origin, "http://"); ok {
			return after == host
		}
		if after, ok := strings.CutPrefix(origin, "https://"); ok {
			return after == host
		}
		return false
	},
}

// handleNotificationsWS upgrades the connection and hands it to the
// notification hub, which owns it from then on.
func (s *Server) handleNotificationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Err(err).
			Str("event", "ws.upgrade_failed").
			Msg("websocket upgrade failed")
		return
	}
	s.hub.Attach(conn)
}
