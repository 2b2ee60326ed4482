// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"fmt"
)

// KeyInterface is the document key of the user-preference section.
const KeyInterface = "interface"

// Settings is the typed view of the settings document. It covers the fields
// the daemon interprets; passthrough keys live only in the raw document.
type Settings struct {
	ClaudeExecutablePath string `json:"claudeExecutablePath"`
	LogLevel             string `json:"logLevel"`
	ServerPort           int    `json:"serverPort"`
	MaxConversations     int    `json:"maxConversations"`
	// ConversationTimeout and HealthCheckInterval are milliseconds, matching
	// the wire format the web UI reads and writes.
	ConversationTimeout int64  `json:"conversationTimeout"`
	HealthCheckInterval int64  `json:"healthCheckInterval"`
	MachineID           string `json:"machineId"`

	// Models maps a provider name to its ordered model list. Optional; the
	// registry has no default for it, so it only exists when configured.
	Models map[string][]ModelInfo `json:"models,omitempty"`

	Interface InterfaceSettings `json:"interface"`
}

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ContextWindow int    `json:"contextWindow,omitempty"`
}

// InterfaceSettings holds the user-facing interface preferences.
type InterfaceSettings struct {
	ColorScheme   string                `json:"colorScheme"`
	Language      string                `json:"language"`
	Notifications *NotificationSettings `json:"notifications,omitempty"`
}

// NotificationSettings controls which conversation events are pushed to UI
// clients. Legacy fields from older releases may exist in the document; they
// are preserved but not interpreted.
type NotificationSettings struct {
	Enabled       bool `json:"enabled"`
	ShowOnSuccess bool `json:"showOnSuccess"`
	ShowOnError   bool `json:"showOnError"`
	ShowOnStart   bool `json:"showOnStart"`
}

// InterfacePatch is a partial update of the interface section. Nil fields are
// left untouched, which keeps "absent" distinguishable from a zero value.
type InterfacePatch struct {
	ColorScheme   *string             `json:"colorScheme,omitempty"`
	Language      *string             `json:"language,omitempty"`
	Notifications *NotificationsPatch `json:"notifications,omitempty"`
}

// NotificationsPatch is a partial update of the notification preferences.
type NotificationsPatch struct {
	Enabled       *bool `json:"enabled,omitempty"`
	ShowOnSuccess *bool `json:"showOnSuccess,omitempty"`
	ShowOnError   *bool `json:"showOnError,omitempty"`
	ShowOnStart   *bool `json:"showOnStart,omitempty"`
}

// document renders the patch as a merge overlay containing only the fields
// that are set.
func (p InterfacePatch) document() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode interface patch: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode interface patch: %w", err)
	}
	return doc, nil
}

// decodeSettings produces the typed view of a raw document. It fails when a
// known field holds a value of the wrong type; such values are deliberately
// not coerced (they pass through the document unvalidated, like unknown keys).
func decodeSettings(doc map[string]any) (Settings, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings document: %w", err)
	}
	var out Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings document: %w", err)
	}
	return out, nil
}
