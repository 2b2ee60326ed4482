// SPDX-License-Identifier: MIT

// Package notify delivers conversation lifecycle notifications to connected
// UI clients, honoring the user's notification preferences.
package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/settings"
)

// EventType identifies a conversation lifecycle event.
type EventType string

const (
	EventStart   EventType = "start"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// Event is one notification as pushed to clients.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	Message        string    `json:"message,omitempty"`
	Time           int64     `json:"time"`
}

// Sink receives events that passed the preference gate. Implemented by *Hub.
type Sink interface {
	Broadcast(v any)
}

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "agentdeck_notifications_total",
	Help: "Number of notifications delivered to the hub, by event type",
}, []string{"type"})

// Dispatcher gates events on the notification preferences in the settings
// store. It is a read-only consumer of the store and never touches the
// settings file itself.
type Dispatcher struct {
	store  *settings.Store
	sink   Sink
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher publishing to sink.
func NewDispatcher(store *settings.Store, sink Sink) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sink:   sink,
		logger: xglog.WithComponent("notify"),
	}
}

// Publish forwards ev to connected clients if the user's preferences allow
// it. A store that cannot serve preferences drops the event; notifications
// are best-effort.
func (d *Dispatcher) Publish(ev Event) {
	iface, err := d.store.Interface()
	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("event", "notify.preferences_unavailable").
			Msg("dropping notification")
		return
	}

	prefs := iface.Notifications
	if prefs == nil || !prefs.Enabled {
		return
	}
	switch ev.Type {
	case EventStart:
		if !prefs.ShowOnStart {
			return
		}
	case EventSuccess:
		if !prefs.ShowOnSuccess {
			return
		}
	case EventError:
		if !prefs.ShowOnError {
			return
		}
	}

	if ev.Time == 0 {
		ev.Time = time.Now().Unix()
	}
	d.sink.Broadcast(ev)
	notificationsTotal.WithLabelValues(string(ev.Type)).Inc()
}
