// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	xglog "github.com/agentdeck/agentdeck/internal/log"
)

type statusResponse struct {
	MachineID           string `json:"machineId"`
	Version             string `json:"version"`
	UptimeSeconds       int64  `json:"uptimeSeconds"`
	MaxConversations    int    `json:"maxConversations"`
	ConversationTimeout int64  `json:"conversationTimeout"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.ConfigValue()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		MachineID:           cfg.MachineID,
		Version:             s.version,
		UptimeSeconds:       int64(time.Since(s.startTime).Seconds()),
		MaxConversations:    cfg.MaxConversations,
		ConversationTimeout: cfg.ConversationTimeout,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.resolver.Resolve()
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "models.resolve_failed").
			Msg("model resolution failed")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}
