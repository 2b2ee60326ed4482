// SPDX-License-Identifier: MIT

package settings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	migrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentdeck_settings_migrations_total",
		Help: "Number of loads that rewrote the settings file to fill in missing defaults",
	})

	updatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentdeck_settings_updates_total",
		Help: "Number of successfully persisted settings updates",
	})

	writeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentdeck_settings_write_failures_total",
		Help: "Number of settings writes rejected due to disk errors",
	})

	parseFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentdeck_settings_parse_fallbacks_total",
		Help: "Number of loads that degraded a malformed settings file to defaults",
	})
)
