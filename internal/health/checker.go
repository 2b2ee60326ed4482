// SPDX-License-Identifier: MIT

// Package health periodically verifies that the configured Claude executable
// is runnable and raises notifications on transitions.
package health

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/notify"
	"github.com/agentdeck/agentdeck/internal/settings"
)

const (
	fallbackInterval = 30 * time.Second
	minInterval      = time.Second
)

// Checker runs the periodic executable check. The interval is re-read from
// the settings store before every wait, so an updated healthCheckInterval
// takes effect without a restart.
type Checker struct {
	store      *settings.Store
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger

	// lookPath is a test seam; defaults to exec.LookPath.
	lookPath func(file string) (string, error)

	checked bool
	healthy bool
}

// NewChecker creates a checker over the given store and dispatcher.
func NewChecker(store *settings.Store, dispatcher *notify.Dispatcher) *Checker {
	return &Checker{
		store:      store,
		dispatcher: dispatcher,
		logger:     xglog.WithComponent("health"),
		lookPath:   exec.LookPath,
	}
}

// Run blocks until ctx is done, checking on every interval tick.
func (c *Checker) Run(ctx context.Context) error {
	for {
		timer := time.NewTimer(c.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			c.check()
		}
	}
}

func (c *Checker) interval() time.Duration {
	cfg, err := c.store.ConfigValue()
	if err != nil || cfg.HealthCheckInterval <= 0 {
		return fallbackInterval
	}
	d := time.Duration(cfg.HealthCheckInterval) * time.Millisecond
	if d < minInterval {
		d = minInterval
	}
	return d
}

// check probes the executable and publishes a notification on every
// healthy/unhealthy transition, not on every failed probe.
func (c *Checker) check() {
	cfg, err := c.store.ConfigValue()
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("event", "health.settings_unavailable").
			Msg("skipping health check")
		return
	}

	bin := cfg.ClaudeExecutablePath
	_, lookErr := c.lookPath(bin)
	healthy := lookErr == nil

	switch {
	case c.checked && healthy == c.healthy:
		// No transition.
	case healthy:
		if c.checked {
			c.logger.Info().
				Str("event", "health.recovered").
				Str("executable", bin).
				Msg("claude executable available again")
			c.dispatcher.Publish(notify.Event{
				Type:    notify.EventSuccess,
				Message: fmt.Sprintf("claude executable %q is available again", bin),
			})
		}
	default:
		c.logger.Warn().
			Err(lookErr).
			Str("event", "health.check_failed").
			Str("executable", bin).
			Msg("claude executable not found")
		c.dispatcher.Publish(notify.Event{
			Type:    notify.EventError,
			Message: fmt.Sprintf("claude executable %q not found", bin),
		})
	}

	c.healthy = healthy
	c.checked = true
}
