// SPDX-License-Identifier: MIT

// Package models resolves metadata for the models configured in the settings
// document. It keeps its own cache file and never writes to the settings
// store.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	xglog "github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/settings"
)

// CacheFileName is the resolver's cache file, kept next to the settings file.
const CacheFileName = "models-cache.json"

// Metadata is cached enrichment for one model, keyed by "provider/id".
type Metadata struct {
	DisplayName   string `json:"displayName,omitempty"`
	ContextWindow int    `json:"contextWindow,omitempty"`
	LastSeen      int64  `json:"lastSeen,omitempty"`
}

// Resolved is one model as served by the API: configured fields first,
// cached metadata filling the gaps.
type Resolved struct {
	Provider      string `json:"provider"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextWindow int    `json:"contextWindow,omitempty"`
}

// Resolver overlays the models configured in the settings document onto its
// metadata cache. The settings document decides which models exist; the
// cache only enriches them.
type Resolver struct {
	store     *settings.Store
	cachePath string
	logger    zerolog.Logger

	mu    sync.Mutex
	cache map[string]Metadata
}

// NewResolver creates a resolver with its cache loaded from cachePath. A
// missing or corrupt cache starts empty; like the settings loader, this path
// favors availability over strictness.
func NewResolver(store *settings.Store, cachePath string) *Resolver {
	r := &Resolver{
		store:     store,
		cachePath: cachePath,
		logger:    xglog.WithComponent("models"),
	}
	r.cache = r.loadCache()
	return r
}

func (r *Resolver) loadCache() map[string]Metadata {
	raw, err := os.ReadFile(r.cachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().
				Err(err).
				Str("event", "models.cache_read_failed").
				Str("path", r.cachePath).
				Msg("model cache unreadable, starting empty")
		}
		return map[string]Metadata{}
	}

	var cache map[string]Metadata
	if err := json.Unmarshal(raw, &cache); err != nil || cache == nil {
		r.logger.Warn().
			Err(err).
			Str("event", "models.cache_corrupt").
			Str("path", r.cachePath).
			Msg("model cache malformed, starting empty")
		return map[string]Metadata{}
	}
	return cache
}

// Resolve returns the configured models in a deterministic order: providers
// sorted by name, model order within a provider as configured.
func (r *Resolver) Resolve() ([]Resolved, error) {
	cfg, err := r.store.ConfigValue()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(cfg.Models))
	for provider := range cfg.Models {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Resolved, 0)
	for _, provider := range providers {
		for _, m := range cfg.Models[provider] {
			res := Resolved{
				Provider:      provider,
				ID:            m.ID,
				Name:          m.Name,
				ContextWindow: m.ContextWindow,
			}
			if meta, ok := r.cache[cacheKey(provider, m.ID)]; ok {
				if res.Name == "" {
					res.Name = meta.DisplayName
				}
				if res.ContextWindow == 0 {
					res.ContextWindow = meta.ContextWindow
				}
			}
			if res.Name == "" {
				res.Name = m.ID
			}
			out = append(out, res)
		}
	}
	return out, nil
}

// Remember records metadata for a model and persists the cache.
func (r *Resolver) Remember(provider, id string, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meta.LastSeen == 0 {
		meta.LastSeen = time.Now().Unix()
	}
	r.cache[cacheKey(provider, id)] = meta
	return r.writeCache()
}

// writeCache persists the cache atomically, same temp-file-and-rename
// discipline as the settings writer. Callers hold r.mu.
func (r *Resolver) writeCache() error {
	if err := os.MkdirAll(filepath.Dir(r.cachePath), 0o750); err != nil {
		return fmt.Errorf("mkdir model cache dir: %w", err)
	}

	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model cache: %w", err)
	}
	data = append(data, '\n')

	pending, err := renameio.NewPendingFile(r.cachePath)
	if err != nil {
		return fmt.Errorf("create pending model cache file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write model cache: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace model cache: %w", err)
	}
	return nil
}

func cacheKey(provider, id string) string {
	return provider + "/" + id
}
