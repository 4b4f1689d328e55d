package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
)

// EnvPrefix prefixes environment overrides, e.g. LOOKAHEAD_SEARCH_DEBOUNCE_MS
const EnvPrefix = "LOOKAHEAD"

// Config represents the application configuration
type Config struct {
	Version    int             `toml:"version" mapstructure:"version"`
	Search     SearchSettings  `toml:"search" mapstructure:"search"`
	Backend    BackendSettings `toml:"backend" mapstructure:"backend"`
	UISettings UISettings      `toml:"ui" mapstructure:"ui"`
	Selection  domain.Lookup   `toml:"selection" mapstructure:"selection"` // initial value of the search box
}

// SearchSettings tunes the autocomplete pipeline
type SearchSettings struct {
	DebounceMS      int     `toml:"debounce_ms" mapstructure:"debounce_ms"`
	ScrollThreshold float64 `toml:"scroll_threshold" mapstructure:"scroll_threshold"` // fraction of the loaded list
}

// BackendSettings tunes the mock backend
type BackendSettings struct {
	LatencyMS int `toml:"latency_ms" mapstructure:"latency_ms"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	VisibleRows    int  `toml:"visible_rows" mapstructure:"visible_rows"`
	ShowIDs        bool `toml:"show_ids" mapstructure:"show_ids"`
	AutosaveOnExit bool `toml:"autosave_on_exit" mapstructure:"autosave_on_exit"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"debounce": "search.debounce_ms",
	"latency":  "backend.latency_ms",
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	ReadFile() (*Config, error)
	BindFlags(flags *pflag.FlagSet) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
	flags    *pflag.FlagSet
}

// DefaultPath returns the config file location under the user config dir
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "lookahead", "config.toml")
}

// NewConfigService creates a config service for path. An empty path uses
// DefaultPath.
func NewConfigService(path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{filePath: path}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(path string, bus eventbus.EventBus) ConfigService {
	cs := NewConfigService(path).(*configService)
	cs.bus = bus
	return cs
}

// Path returns the file the service loads and saves
func (cs *configService) Path() string {
	return cs.filePath
}

// BindFlags lets changed command line flags override file and env values
func (cs *configService) BindFlags(flags *pflag.FlagSet) error {
	for name := range flagKeys {
		if flags.Lookup(name) == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
	}
	cs.flags = flags
	return nil
}

// Load loads the configuration from file. A missing file yields the defaults,
// still subject to env and flag overrides.
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.read(cs.filePath, true)
	if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	return cs.read(path, false)
}

// ReadFile decodes the file over the defaults with no env or flag overrides
// applied. Use it when the result is written back.
func (cs *configService) ReadFile() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cs.filePath, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (cs *configService) read(path string, allowMissing bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cs.flags != nil {
		for name, key := range flagKeys {
			if err := v.BindPFlag(key, cs.flags.Lookup(name)); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) || !allowMissing {
		return nil, fmt.Errorf("config file not found: %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects values the UI and pipeline cannot work with
func (c *Config) Validate() error {
	if c.Search.DebounceMS < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative, got %d", c.Search.DebounceMS)
	}
	if c.Search.ScrollThreshold <= 0 || c.Search.ScrollThreshold > 1 {
		return fmt.Errorf("search.scroll_threshold must be in (0, 1], got %g", c.Search.ScrollThreshold)
	}
	if c.Backend.LatencyMS < 0 {
		return fmt.Errorf("backend.latency_ms must not be negative, got %d", c.Backend.LatencyMS)
	}
	if c.UISettings.VisibleRows < 1 {
		return fmt.Errorf("ui.visible_rows must be at least 1, got %d", c.UISettings.VisibleRows)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchSettings{
			DebounceMS:      200,
			ScrollThreshold: 0.8,
		},
		UISettings: UISettings{
			VisibleRows:    6,
			ShowIDs:        true,
			AutosaveOnExit: true,
		},
		Selection: domain.Lookup{ID: 2, Name: "ana"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	v.SetDefault("search.scroll_threshold", d.Search.ScrollThreshold)
	v.SetDefault("backend.latency_ms", d.Backend.LatencyMS)
	v.SetDefault("ui.visible_rows", d.UISettings.VisibleRows)
	v.SetDefault("ui.show_ids", d.UISettings.ShowIDs)
	v.SetDefault("ui.autosave_on_exit", d.UISettings.AutosaveOnExit)
	v.SetDefault("selection.id", d.Selection.ID)
	v.SetDefault("selection.name", d.Selection.Name)
}
