// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/vrnotify/internal/notify"
)

// Default configuration values.
const (
	DefaultOverlayKey  = "vrnotify.overlay"
	DefaultOverlayName = "vrnotify"
	DefaultStyle       = "application"
	DefaultMessage     = "This is a test."
	DefaultIDSource    = "random"
	DefaultAppName     = "vrnotify"
	DefaultRateBurst   = 1
	DefaultHistoryKeep = 500
	DefaultSettle      = 250 * time.Millisecond
)

// DefaultExtensions are the image file extensions picked up in watch mode.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Config represents the vrnotify configuration.
type Config struct {
	Overlay      OverlayConfig      `toml:"overlay"`
	Notification NotificationConfig `toml:"notification"`
	Bus          BusConfig          `toml:"bus"`
	History      HistoryConfig      `toml:"history"`
	Watch        WatchConfig        `toml:"watch"`
}

// OverlayConfig names the overlay notifications are shown on.
type OverlayConfig struct {
	Key  string `toml:"key"`  // Unique overlay key
	Name string `toml:"name"` // Shown as the notification summary
}

// NotificationConfig holds per-notification defaults.
type NotificationConfig struct {
	Style    string `toml:"style"`     // application, system, none
	Message  string `toml:"message"`   // Text used when none is given
	IDSource string `toml:"id_source"` // counter, random
}

// BusConfig configures the session bus notification server connection.
type BusConfig struct {
	AppName       string   `toml:"app_name"`
	ExpireTimeout Duration `toml:"expire_timeout"` // 0 = server default
	RateInterval  Duration `toml:"rate_interval"`  // 0 = unlimited
	RateBurst     int      `toml:"rate_burst"`
}

// HistoryConfig controls the submission history file.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Empty = DataPath()/history.jsonl
	Keep    int    `toml:"keep"` // Records kept by prune (0 = unlimited)
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Extensions []string `toml:"extensions"`
	Settle     Duration `toml:"settle"` // Quiet period before a changed file is sent
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Overlay: OverlayConfig{
			Key:  DefaultOverlayKey,
			Name: DefaultOverlayName,
		},
		Notification: NotificationConfig{
			Style:    DefaultStyle,
			Message:  DefaultMessage,
			IDSource: DefaultIDSource,
		},
		Bus: BusConfig{
			AppName:   DefaultAppName,
			RateBurst: DefaultRateBurst,
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    DefaultHistoryKeep,
		},
		Watch: WatchConfig{
			Extensions: append([]string(nil), DefaultExtensions...),
			Settle:     Duration(DefaultSettle),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "vrnotify", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "vrnotify")
}

// HistoryPath returns the history file location, honouring [history] path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return expandPath(c.History.Path)
	}
	return filepath.Join(DataPath(), "history.jsonl")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Overlay.Key) == "" {
		return errors.New("overlay key must not be empty")
	}
	if _, err := notify.ParseStyle(c.Notification.Style); err != nil {
		return err
	}
	switch c.Notification.IDSource {
	case "counter", "random":
	default:
		return fmt.Errorf("invalid id_source %q, must be one of: counter, random", c.Notification.IDSource)
	}
	if c.Bus.ExpireTimeout < 0 {
		return fmt.Errorf("expire_timeout must not be negative, got %s", c.Bus.ExpireTimeout.Duration())
	}
	if c.Bus.RateInterval < 0 {
		return fmt.Errorf("rate_interval must not be negative, got %s", c.Bus.RateInterval.Duration())
	}
	if c.Bus.RateBurst < 0 {
		return fmt.Errorf("rate_burst must not be negative, got %d", c.Bus.RateBurst)
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history keep must not be negative, got %d", c.History.Keep)
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch extension %q must start with a dot", ext)
		}
	}
	if c.Watch.Settle < 0 {
		return fmt.Errorf("settle must not be negative, got %s", c.Watch.Settle.Duration())
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
