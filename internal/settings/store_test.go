// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "settings.json"))
}

func readFileDocument(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestInitCreatesFileFromDefaults(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	onDisk := readFileDocument(t, s.Path())
	cached, err := s.Config()
	require.NoError(t, err)

	if diff := cmp.Diff(cached, onDisk); diff != "" {
		t.Errorf("file and cache differ after init (-cache +disk):\n%s", diff)
	}

	iface, err := s.Interface()
	require.NoError(t, err)
	want := Defaults().Interface
	assert.Equal(t, want.ColorScheme, iface.ColorScheme)
	assert.Equal(t, want.Language, iface.Language)
	require.NotNil(t, iface.Notifications)
	assert.Equal(t, *want.Notifications, *iface.Notifications)
}

func TestInitWithEmptyObjectFileYieldsFullDefaults(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{}"), 0o600))
	require.NoError(t, s.Init())

	cfg, err := s.ConfigValue()
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.ClaudeExecutablePath)
	assert.Equal(t, 8765, cfg.ServerPort)
	assert.NotEmpty(t, cfg.MachineID)
	require.NotNil(t, cfg.Interface.Notifications)
	assert.True(t, cfg.Interface.Notifications.ShowOnStart)

	doc, err := s.Config()
	require.NoError(t, err)
	for _, key := range []string{
		"claudeExecutablePath", "logLevel", "serverPort", "maxConversations",
		"conversationTimeout", "healthCheckInterval", "machineId", "interface",
	} {
		assert.Contains(t, doc, key)
	}
}

func TestInitPreservesSystemFieldsAndFillsInterface(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"serverPort":9999,"machineId":"m-fixed"}`), 0o600))
	require.NoError(t, s.Init())

	cfg, err := s.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, "m-fixed", cfg.MachineID)

	want := Defaults().Interface
	assert.Equal(t, want.ColorScheme, cfg.Interface.ColorScheme)
	assert.Equal(t, want.Language, cfg.Interface.Language)
	require.NotNil(t, cfg.Interface.Notifications)
	assert.Equal(t, *want.Notifications, *cfg.Interface.Notifications)
}

func TestMachineIDStableAcrossLoads(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())
	first, err := s.ConfigValue()
	require.NoError(t, err)
	require.NotEmpty(t, first.MachineID)

	s.Reset()
	require.NoError(t, s.Init())
	second, err := s.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, first.MachineID, second.MachineID)

	fresh := New(s.Path())
	require.NoError(t, fresh.Init())
	third, err := fresh.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, first.MachineID, third.MachineID)
}

func TestInitIdempotentAndNoRewriteWhenComplete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	// Compact the complete document on disk. A second load has nothing to
	// migrate, so the file must keep its compact formatting: a rewrite would
	// pretty-print it.
	doc := readFileDocument(t, s.Path())
	compact, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), compact, 0o600))

	fresh := New(s.Path())
	require.NoError(t, fresh.Init())
	require.NoError(t, fresh.Init()) // second call is a no-op

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, compact, after, "complete file must not be rewritten")

	got, err := fresh.Config()
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("document changed across idempotent init (-disk +cache):\n%s", diff)
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	for name, content := range map[string]string{
		"invalid json": `{"serverPort": 9999`,
		"json array":   `[1,2,3]`,
		"json scalar":  `"just a string"`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
			require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))

			require.NoError(t, s.Init(), "loading never fails for a malformed file")

			cfg, err := s.ConfigValue()
			require.NoError(t, err)
			assert.Equal(t, 8765, cfg.ServerPort, "malformed content degrades to defaults")

			// The degraded document is written back, repairing the file.
			onDisk := readFileDocument(t, s.Path())
			assert.Contains(t, onDisk, "interface")
		})
	}
}

func TestEmptyFileTreatedAsEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	require.NoError(t, os.WriteFile(s.Path(), []byte("  \n"), 0o600))
	require.NoError(t, s.Init())

	cfg, err := s.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestUnknownKeysSurviveRoundTrips(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	content := `{"serverPort":1234,"legacyFlag":true,"custom":{"deep":{"value":"kept"},"list":[1,2]}}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))
	require.NoError(t, s.Init())

	doc, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, true, doc["legacyFlag"])
	assert.Equal(t, "kept", doc["custom"].(map[string]any)["deep"].(map[string]any)["value"])

	// Unknown keys also survive an unrelated update's rewrite.
	_, err = s.UpdateConfig(map[string]any{"logLevel": "debug"})
	require.NoError(t, err)

	onDisk := readFileDocument(t, s.Path())
	assert.Equal(t, true, onDisk["legacyFlag"])
	assert.Equal(t, []any{float64(1), float64(2)}, onDisk["custom"].(map[string]any)["list"])
	assert.Equal(t, "debug", onDisk["logLevel"])
}

func TestWrongTypedKnownFieldPassesThrough(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"serverPort":"9999"}`), 0o600))
	require.NoError(t, s.Init())

	doc, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, "9999", doc["serverPort"], "wrong-typed values are not coerced")

	// The typed view cannot represent the value; the raw document remains
	// authoritative.
	_, err = s.ConfigValue()
	assert.Error(t, err)
}

func TestUpdateInterfaceColorScheme(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	before, err := s.Interface()
	require.NoError(t, err)

	dark := "dark"
	iface, err := s.UpdateInterface(InterfacePatch{ColorScheme: &dark})
	require.NoError(t, err)

	assert.Equal(t, "dark", iface.ColorScheme)
	assert.Equal(t, before.Language, iface.Language)
	require.NotNil(t, iface.Notifications)
	assert.Equal(t, *before.Notifications, *iface.Notifications)
}

func TestUpdateNotificationsEnabledLeavesSiblingsUntouched(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	off := false
	iface, err := s.UpdateInterface(InterfacePatch{
		Notifications: &NotificationsPatch{Enabled: &off},
	})
	require.NoError(t, err)

	require.NotNil(t, iface.Notifications)
	assert.False(t, iface.Notifications.Enabled)
	assert.True(t, iface.Notifications.ShowOnSuccess)
	assert.True(t, iface.Notifications.ShowOnError)
	assert.True(t, iface.Notifications.ShowOnStart)
}

func TestUpdatesPersistAcrossStoreInstances(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	dark := "dark"
	_, err := s.UpdateInterface(InterfacePatch{ColorScheme: &dark})
	require.NoError(t, err)
	_, err = s.UpdateConfig(map[string]any{"serverPort": 4242})
	require.NoError(t, err)

	fresh := New(s.Path())
	require.NoError(t, fresh.Init())

	cfg, err := fresh.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, 4242, cfg.ServerPort)
	assert.Equal(t, "dark", cfg.Interface.ColorScheme)
}

func TestAccessorsBeforeInit(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Config()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.ConfigValue()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Interface()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.UpdateConfig(map[string]any{"logLevel": "debug"})
	assert.ErrorIs(t, err, ErrNotInitialized)

	dark := "dark"
	_, err = s.UpdateInterface(InterfacePatch{ColorScheme: &dark})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestResetReturnsStoreToUninitialized(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())
	s.Reset()

	_, err := s.Config()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestUpdateWriteFailureKeepsCache(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "cfg")
	s := New(filepath.Join(dir, "settings.json"))
	require.NoError(t, s.Init())

	before, err := s.Config()
	require.NoError(t, err)

	// Replace the parent directory with a regular file so the next write
	// cannot create its temp file.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o600))

	_, err = s.UpdateConfig(map[string]any{"serverPort": 1})
	require.Error(t, err)

	var wErr *WriteError
	assert.True(t, errors.As(err, &wErr), "expected *WriteError, got %T", err)

	after, err := s.Config()
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("cache changed despite failed write (-before +after):\n%s", diff)
	}
}

func TestConfigReturnsIsolatedCopy(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	doc, err := s.Config()
	require.NoError(t, err)
	doc["serverPort"] = float64(1)
	doc[KeyInterface].(map[string]any)["colorScheme"] = "mutated"

	cfg, err := s.ConfigValue()
	require.NoError(t, err)
	assert.Equal(t, 8765, cfg.ServerPort)
	assert.Equal(t, "auto", cfg.Interface.ColorScheme)
}

func TestConcurrentUpdatesApplyInFull(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateConfig(map[string]any{
				fmt.Sprintf("worker%d", i): i,
				"shared":                   map[string]any{fmt.Sprintf("slot%d", i): true},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc, err := s.Config()
	require.NoError(t, err)
	shared := doc["shared"].(map[string]any)
	for i := 0; i < n; i++ {
		assert.Contains(t, doc, fmt.Sprintf("worker%d", i))
		assert.Contains(t, shared, fmt.Sprintf("slot%d", i), "no update may clobber another's merge")
	}

	// Disk matches the final cache.
	onDisk := readFileDocument(t, s.Path())
	if diff := cmp.Diff(doc, onDisk); diff != "" {
		t.Errorf("file and cache differ after concurrent updates (-cache +disk):\n%s", diff)
	}
}

func TestDefaultSingleton(t *testing.T) {
	t.Setenv(EnvSettingsPath, filepath.Join(t.TempDir(), "settings.json"))
	ResetDefault()
	t.Cleanup(ResetDefault)

	a := Default()
	b := Default()
	require.Same(t, a, b, "factory must return the same handle")

	_, err := a.Config()
	assert.ErrorIs(t, err, ErrNotInitialized, "factory must not initialize the handle")

	ResetDefault()
	c := Default()
	assert.NotSame(t, a, c)
}
