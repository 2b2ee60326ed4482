// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the agentdeck daemon.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/models"
	"github.com/agentdeck/agentdeck/internal/notify"
	"github.com/agentdeck/agentdeck/internal/settings"
)

// Server holds the handler dependencies. All settings access goes through the
// injected store; no handler touches the settings file directly.
type Server struct {
	store     *settings.Store
	resolver  *models.Resolver
	hub       *notify.Hub
	version   string
	startTime time.Time
	logger    zerolog.Logger
}

// Options configures a Server.
type Options struct {
	Store    *settings.Store
	Resolver *models.Resolver
	Hub      *notify.Hub
	Version  string
}

// New creates the API server. Store is required; Resolver and Hub are
// optional and their routes are only mounted when present.
func New(opts Options) *Server {
	return &Server{
		store:     opts.Store,
		resolver:  opts.Resolver,
		hub:       opts.Hub,
		version:   opts.Version,
		startTime: time.Now(),
		logger:    xglog.WithComponent("api"),
	}
}

// Handler builds the chi router with the canonical middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(APIRateLimit())

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
		r.Get("/config/interface", s.handleGetInterface)
		r.Put("/config/interface", s.handleUpdateInterface)
		r.Get("/status", s.handleStatus)
		if s.resolver != nil {
			r.Get("/models", s.handleModels)
		}
	})

	if s.hub != nil {
		r.Get("/ws/notifications", s.handleNotificationsWS)
	}

	return r
}
