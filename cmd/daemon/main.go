// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentdeck/agentdeck/internal/api"
	"github.com/agentdeck/agentdeck/internal/health"
	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/models"
	"github.com/agentdeck/agentdeck/internal/notify"
	"github.com/agentdeck/agentdeck/internal/settings"
)

var (
	version   = "v0.4.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	settingsPath := flag.String("settings", "", "path to settings file (JSON)")
	listenAddr := flag.String("listen", "", "API listen address (overrides AGENTDECK_LISTEN)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until settings are loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "agentdeck",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *settings.Store
	if path := strings.TrimSpace(*settingsPath); path != "" {
		store = settings.New(path)
	} else {
		store = settings.Default()
	}

	if err := store.Init(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "settings.init_failed").
			Str("path", store.Path()).
			Msg("failed to initialize settings store")
	}

	cfg, err := store.ConfigValue()
	if err != nil {
		// Wrong-typed fields pass through the document unvalidated; fall back
		// to defaults for the daemon's own wiring.
		logger.Warn().
			Err(err).
			Str("event", "settings.decode_failed").
			Msg("settings document has unexpected field types, wiring daemon from defaults")
		cfg = settings.Defaults()
	}

	// Re-configure logger with the persisted log level.
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "agentdeck",
		Version: version,
	})

	addr := strings.TrimSpace(*listenAddr)
	if addr == "" {
		addr = strings.TrimSpace(os.Getenv("AGENTDECK_LISTEN"))
	}
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.ServerPort)
	}

	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(store, hub)
	resolver := models.NewResolver(store, filepath.Join(filepath.Dir(store.Path()), models.CacheFileName))
	checker := health.NewChecker(store, dispatcher)

	srv := api.New(api.Options{
		Store:    store,
		Resolver: resolver,
		Hub:      hub,
		Version:  version,
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", addr).
		Str("settings_path", store.Path()).
		Str("machine_id", cfg.MachineID).
		Msg("starting agentdeck")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return checker.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
	}

	logger.Info().Msg("server exiting")
}
