// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdeck/agentdeck/internal/settings"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest writes a 400 response with the given message.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeStoreError maps settings store failures onto HTTP status codes: the
// store not being initialized is a service condition, a failed disk write is
// an internal error whose details stay in the logs.
func writeStoreError(w http.ResponseWriter, err error) {
	var wErr *settings.WriteError
	switch {
	case errors.Is(err, settings.ErrNotInitialized):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "settings not initialized"})
	case errors.As(err, &wErr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist settings"})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
