// SPDX-License-Identifier: MIT

package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/agentdeck/agentdeck/internal/log"
)

// EnvSettingsPath overrides the resolved settings file path.
const EnvSettingsPath = "AGENTDECK_SETTINGS"

const (
	defaultDirName  = ".agentdeck"
	defaultFileName = "settings.json"
)

// Store owns one settings file and its in-memory cache. A Store starts
// uninitialized; every accessor except Init fails with ErrNotInitialized
// until Init has completed. Updates are serialized by the store mutex, so
// each update's merge sees the result of all prior updates.
type Store struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	doc   map[string]any
	ready bool
}

// New creates an uninitialized store bound to the given file path.
func New(path string) *Store {
	return &Store{
		path: path,
		log:  xglog.WithComponent("settings"),
	}
}

// DefaultPath resolves the per-user settings file path. AGENTDECK_SETTINGS
// wins; otherwise the file lives under the user's home directory.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvSettingsPath)); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", defaultDirName, defaultFileName)
	}
	return filepath.Join(home, defaultDirName, defaultFileName)
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the process-wide store handle, creating it against
// DefaultPath on first call. The handle is returned uninitialized; callers
// decide when Init runs. Subsequent calls return the same handle without
// touching the file.
func Default() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		defaultStore = New(DefaultPath())
	}
	return defaultStore
}

// ResetDefault discards the process-wide handle so the next Default call
// resolves the path again. Test seam.
func ResetDefault() {
	defaultMu.Lock()
	defaultStore = nil
	defaultMu.Unlock()
}

// Path returns the resolved settings file path.
func (s *Store) Path() string { return s.path }

// Init loads the settings file, migrates it onto the default schema, and
// writes the merged document back when the on-disk shape changed (including
// when the file did not exist). Calling Init on a ready store is a no-op; use
// Reset to force a fresh load.
//
// A missing or malformed file is not an error: loading degrades to defaults.
// Only a failed write-back surfaces, as a *WriteError.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	doc, migrated := s.loadDocument()
	if migrated {
		if err := writeDocument(s.path, doc); err != nil {
			writeFailuresTotal.Inc()
			return err
		}
		migrationsTotal.Inc()
	}

	s.doc = doc
	s.ready = true
	s.log.Info().
		Str("event", "settings.loaded").
		Str("path", s.path).
		Bool("migrated", migrated).
		Msg("settings loaded")
	return nil
}

// loadDocument reads and parses the settings file and merges it onto a fresh
// default document. The second return value reports whether the merged
// document differs from what was on disk, i.e. whether a rewrite is due.
func (s *Store) loadDocument() (map[string]any, bool) {
	defaults := defaultDocument()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().
				Err(err).
				Str("event", "settings.read_failed").
				Str("path", s.path).
				Msg("settings file unreadable, starting from defaults")
		}
		return defaults, true
	}

	loaded := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		// Unmarshal into a map also rejects well-formed JSON that is not an
		// object (arrays, scalars); both degrade to the empty document.
		if err := json.Unmarshal(raw, &loaded); err != nil {
			parseFallbacksTotal.Inc()
			s.log.Warn().
				Err(err).
				Str("event", "settings.parse_failed").
				Str("path", s.path).
				Msg("settings file malformed, falling back to defaults")
			loaded = map[string]any{}
		}
		if loaded == nil {
			loaded = map[string]any{}
		}
	}

	merged := mergeDocuments(defaults, loaded)
	return merged, !reflect.DeepEqual(merged, loaded)
}

// Config returns a deep copy of the cached document, including passthrough
// keys that are not part of the default schema. Mutating the copy has no
// effect on the store.
func (s *Store) Config() (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, ErrNotInitialized
	}
	return deepCopyDocument(s.doc), nil
}

// ConfigValue returns the typed view of the cached document. Unknown keys are
// absent from the view but remain in the document itself.
func (s *Store) ConfigValue() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return Settings{}, ErrNotInitialized
	}
	return decodeSettings(s.doc)
}

// Interface returns the typed interface section of the cached document.
func (s *Store) Interface() (InterfaceSettings, error) {
	cfg, err := s.ConfigValue()
	if err != nil {
		return InterfaceSettings{}, err
	}
	return cfg.Interface, nil
}

// UpdateConfig deep-merges partial onto the cached document using the same
// rules as the load-time migration, persists the result, and commits the new
// document only after the write succeeded. On failure the previous document
// stays authoritative for all subsequent reads. Returns a deep copy of the
// new full document.
func (s *Store) UpdateConfig(partial map[string]any) (map[string]any, error) {
	overlay, err := normalizeDocument(partial)
	if err != nil {
		return nil, fmt.Errorf("normalize settings update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNotInitialized
	}

	merged := mergeDocuments(s.doc, overlay)
	if err := writeDocument(s.path, merged); err != nil {
		writeFailuresTotal.Inc()
		s.log.Error().
			Err(err).
			Str("event", "settings.write_failed").
			Str("path", s.path).
			Msg("settings update rejected, keeping previous document")
		return nil, err
	}

	s.doc = merged
	updatesTotal.Inc()
	return deepCopyDocument(merged), nil
}

// UpdateInterface applies a partial update to the interface section. The
// merge recurses at every nesting level, so toggling a single notification
// flag leaves its siblings untouched.
func (s *Store) UpdateInterface(patch InterfacePatch) (InterfaceSettings, error) {
	section, err := patch.document()
	if err != nil {
		return InterfaceSettings{}, err
	}
	doc, err := s.UpdateConfig(map[string]any{KeyInterface: section})
	if err != nil {
		return InterfaceSettings{}, err
	}
	cfg, err := decodeSettings(doc)
	if err != nil {
		return InterfaceSettings{}, err
	}
	return cfg.Interface, nil
}

// Reset returns the store to the uninitialized state so the next Init
// performs a fresh load. Test seam; production code initializes once and
// keeps the handle for the life of the process.
func (s *Store) Reset() {
	s.mu.Lock()
	s.doc = nil
	s.ready = false
	s.mu.Unlock()
}
