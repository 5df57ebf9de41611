package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	jerrors "github.com/tessro/jukebox/internal/errors"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.jukeboxrc, $XDG_CONFIG_HOME/jukebox/config.toml, ~/.config/jukebox/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", jerrors.ErrInvalidConfig, path, err)
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", jerrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", jerrors.ErrInvalidConfig, path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the path config init writes to.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jukeboxrc"
	}
	return filepath.Join(home, ".jukeboxrc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".jukeboxrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "jukebox", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Catalog
	if v := os.Getenv("JUKEBOX_CATALOG_COUNT_URL"); v != "" {
		cfg.Catalog.CountURL = v
	}
	if v := os.Getenv("JUKEBOX_CATALOG_DATA_URL"); v != "" {
		cfg.Catalog.DataURL = v
	}
	if v := os.Getenv("JUKEBOX_CATALOG_ASSET_URL"); v != "" {
		cfg.Catalog.AssetURL = v
	}

	// Playback
	if v := os.Getenv("JUKEBOX_PLAYBACK_MPV_PATH"); v != "" {
		cfg.Playback.MPVPath = v
	}
	if v := os.Getenv("JUKEBOX_PLAYBACK_MODE"); v != "" {
		cfg.Playback.Mode = v
	}
	if v := os.Getenv("JUKEBOX_PLAYBACK_RECOVERY_DELAY_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Playback.RecoveryDelayMS = i
		}
	}

	// Prefs
	if v := os.Getenv("JUKEBOX_PREFS_BACKEND"); v != "" {
		cfg.Prefs.Backend = v
	}
	if v := os.Getenv("JUKEBOX_PREFS_PATH"); v != "" {
		cfg.Prefs.Path = v
	}

	// TUI
	if v := os.Getenv("JUKEBOX_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("JUKEBOX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JUKEBOX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("JUKEBOX_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
