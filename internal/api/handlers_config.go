// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/settings"
)

// maxBodyBytes bounds update request bodies; the settings document is tiny.
const maxBodyBytes = 1 << 20

// decodePartial reads a JSON object body for an update. A body that is not a
// JSON object is rejected here; the store never sees it.
func decodePartial(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var partial map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&partial); err != nil || partial == nil {
		writeBadRequest(w, "request body must be a JSON object")
		return nil, false
	}
	return partial, true
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Config()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	partial, ok := decodePartial(w, r)
	if !ok {
		return
	}

	doc, err := s.store.UpdateConfig(partial)
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "config.update_failed").
			Msg("config update rejected")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetInterface(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Config()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc[settings.KeyInterface])
}

func (s *Server) handleUpdateInterface(w http.ResponseWriter, r *http.Request) {
	partial, ok := decodePartial(w, r)
	if !ok {
		return
	}

	doc, err := s.store.UpdateConfig(map[string]any{settings.KeyInterface: partial})
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "interface.update_failed").
			Msg("interface update rejected")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc[settings.KeyInterface])
}
