// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Defaults returns the canonical default settings document. Each call
// produces a fresh value, so callers can never contaminate the registry.
//
// MachineID is generated per call; the merge on load preserves any persisted
// value, so the id written on first start is stable for the life of the
// installation.
func Defaults() Settings {
	return Settings{
		ClaudeExecutablePath: "claude",
		LogLevel:             "info",
		ServerPort:           8765,
		MaxConversations:     10,
		ConversationTimeout:  30 * 60 * 1000,
		HealthCheckInterval:  30 * 1000,
		MachineID:            uuid.NewString(),
		Interface: InterfaceSettings{
			ColorScheme: "auto",
			Language:    "en",
			Notifications: &NotificationSettings{
				Enabled:       true,
				ShowOnSuccess: true,
				ShowOnError:   true,
				ShowOnStart:   true,
			},
		},
	}
}

// defaultDocument returns the defaults in raw document form, normalized
// through JSON so its values compare equal to values parsed from disk.
func defaultDocument() map[string]any {
	data, err := json.Marshal(Defaults())
	if err != nil {
		panic(fmt.Sprintf("settings: marshal defaults: %v", err))
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(fmt.Sprintf("settings: unmarshal defaults: %v", err))
	}
	return doc
}
