package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cs := NewConfigService(filepath.Join(t.TempDir(), "config.toml"))

	cfg, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	cs := NewConfigService("")

	_, err := cs.LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestSaveWritesTOMLAndLoadReadsItBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cs := NewConfigService(path)

	cfg := DefaultConfig()
	cfg.Search.DebounceMS = 50
	cfg.UISettings.ShowIDs = false
	cfg.Selection = domain.Lookup{ID: 1989, Name: "narcis"}
	require.NoError(t, cs.Save(cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debounce_ms = 50")
	assert.Contains(t, string(data), "[selection]")

	loaded, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nlatency_ms = 150\n"), 0644))

	cfg, err := NewConfigService(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Backend.LatencyMS)
	assert.Equal(t, 200, cfg.Search.DebounceMS)
	assert.Equal(t, 0.8, cfg.Search.ScrollThreshold)
	assert.Equal(t, "ana", cfg.Selection.Name)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndebounce_ms = 300\n"), 0644))
	t.Setenv("LOOKAHEAD_SEARCH_DEBOUNCE_MS", "75")

	cfg, err := NewConfigService(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Search.DebounceMS)
}

func TestReadFileIgnoresEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndebounce_ms = 300\n"), 0644))
	t.Setenv("LOOKAHEAD_SEARCH_DEBOUNCE_MS", "75")
	t.Setenv("LOOKAHEAD_BACKEND_LATENCY_MS", "900")

	cfg, err := NewConfigService(path).ReadFile()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Search.DebounceMS)
	assert.Equal(t, 0, cfg.Backend.LatencyMS)
	assert.Equal(t, "ana", cfg.Selection.Name, "defaults fill what the file leaves out")
}

func TestReadFileMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfigService(filepath.Join(dir, "config.toml")).ReadFile()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[search\n"), 0644))
	_, err = NewConfigService(bad).ReadFile()
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestChangedFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndebounce_ms = 300\n[backend]\nlatency_ms = 40\n"), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("debounce", 200, "")
	flags.Int("latency", 0, "")
	require.NoError(t, flags.Parse([]string{"--debounce", "10"}))

	cs := NewConfigService(path)
	require.NoError(t, cs.BindFlags(flags))

	cfg, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.DebounceMS)
	assert.Equal(t, 40, cfg.Backend.LatencyMS, "unchanged flags leave the file value")
}

func TestBindFlagsRequiresKnownFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("debounce", 200, "")

	err := NewConfigService("").BindFlags(flags)
	require.Error(t, err)
}

func TestInvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nscroll_threshold = 1.5\n"), 0644))

	_, err := NewConfigService(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scroll_threshold")
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search\n"), 0644))

	_, err := NewConfigService(path).Load()
	require.Error(t, err)
}

func TestLoadAndSavePublishEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	events := make(chan eventbus.DomainEvent, 2)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) { events <- e })
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) { events <- e })

	path := filepath.Join(t.TempDir(), "config.toml")
	cs := NewConfigServiceWithBus(path, bus)
	cfg, err := cs.Load()
	require.NoError(t, err)
	require.NoError(t, cs.Save(cfg))

	seen := map[eventbus.EventType]string{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			switch ev := e.(type) {
			case eventbus.ConfigLoadedEvent:
				seen[e.Type()] = ev.Path
			case eventbus.ConfigSavedEvent:
				seen[e.Type()] = ev.Path
			}
		case <-time.After(time.Second):
			t.Fatal("missing config event")
		}
	}
	assert.Equal(t, path, seen[eventbus.EventConfigLoaded])
	assert.Equal(t, path, seen[eventbus.EventConfigSaved])
}
