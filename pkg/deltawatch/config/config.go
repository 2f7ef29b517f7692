package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	DefaultPath   string        `mapstructure:"default_path"`
	WindowMinutes int           `mapstructure:"window_minutes"`
	Top           int           `mapstructure:"top"`
	Refresh       float64       `mapstructure:"refresh"`
	ShowEvents    bool          `mapstructure:"show_events"`
	EventCount    int           `mapstructure:"event_count"`
	Recursive     bool          `mapstructure:"recursive"`
	Exclude       []string      `mapstructure:"exclude"`
	MaxHistory    int           `mapstructure:"max_history"`
	Output        string        `mapstructure:"output"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/deltawatch/config.yaml
//   - $HOME/.config/deltawatch/config.yaml
//
// Environment variables are prefixed with DELTAWATCH_
// (e.g., DELTAWATCH_MAX_HISTORY).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "deltawatch"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "deltawatch"))

	v.SetEnvPrefix("DELTAWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_path", DefaultPath)
	v.SetDefault("window_minutes", DefaultWindowMinutes)
	v.SetDefault("top", DefaultTop)
	v.SetDefault("refresh", DefaultRefresh)
	v.SetDefault("show_events", false)
	v.SetDefault("event_count", DefaultEventCount)
	v.SetDefault("recursive", true)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("max_history", DefaultMaxHistory)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use logging.DefaultLogPath
	v.SetDefault("logging.components", map[string]string{
		"watch":    "warn",
		"engine":   "info",
		"baseline": "info",
		"tui":      "info",
	})

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "deltawatch"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "deltawatch"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Deltawatch Configuration

# Default path to watch when none is specified
default_path: %s

# Recency window in minutes for the changed-directory view
window_minutes: %d

# Number of directories to display
top: %d

# Display refresh interval in seconds
refresh: %.1f

# Show the recent-events panel
show_events: false

# Number of recent events to display
event_count: %d

# Watch subdirectories recursively
recursive: true

# Glob patterns to exclude from watching
exclude:
  - "*.swp"
  - "*.swx"
  - "*~"
  - "*/.git/*"

# Event history capacity
max_history: %d

# Non-interactive output format: plain, tsv, json
output: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/deltawatch/deltawatch.log)
  path: ""
  # Per-component log levels
  components:
    watch: warn
    engine: info
    baseline: info
    tui: info
`,
		DefaultPath, DefaultWindowMinutes, DefaultTop, DefaultRefresh,
		DefaultEventCount, DefaultMaxHistory, DefaultOutput)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
