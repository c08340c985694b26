package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the global (non-project) configuration for precheck.
type Settings struct {
	CacheDir    string `mapstructure:"cache_dir" yaml:"cache_dir"`
	Parallelism int    `mapstructure:"parallelism" yaml:"parallelism"`
	Color       string `mapstructure:"color" yaml:"color"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

// LoadSettings loads global settings with full precedence:
// ENV vars > XDG global config > defaults
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("precheck")

	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("parallelism", 0) // 0 = number of CPUs
	v.SetDefault("color", "auto")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Setup ENV binding with PRECHECK_ prefix
	v.SetEnvPrefix("PRECHECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better int parsing
	if err := v.BindEnv("cache_dir", "PRECHECK_CACHE_DIR"); err != nil {
		return nil, fmt.Errorf("binding cache_dir env: %w", err)
	}
	if err := v.BindEnv("parallelism", "PRECHECK_PARALLELISM"); err != nil {
		return nil, fmt.Errorf("binding parallelism env: %w", err)
	}
	if err := v.BindEnv("color", "PRECHECK_COLOR"); err != nil {
		return nil, fmt.Errorf("binding color env: %w", err)
	}
	if err := v.BindEnv("log_level", "PRECHECK_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("binding log_level env: %w", err)
	}
	if err := v.BindEnv("log_file", "PRECHECK_LOG_FILE"); err != nil {
		return nil, fmt.Errorf("binding log_file env: %w", err)
	}

	// Load global config (if exists)
	globalPath := GlobalSettingsPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}

	return &settings, nil
}

// GlobalSettingsPath returns the XDG global settings path.
// Returns ~/.config/precheck/precheck.yml or $XDG_CONFIG_HOME/precheck/precheck.yml.
func GlobalSettingsPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "precheck", "precheck.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "precheck", "precheck.yml")
}

// defaultCacheDir returns the XDG cache directory for repo clones and
// environments. Falls back to ~/.cache/precheck.
func defaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "precheck")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "precheck")
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
