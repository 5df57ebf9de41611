package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Catalog.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Prefs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("prefs: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks CatalogConfig for errors. Empty locations are allowed
// here; commands that need the catalog report them.
func (c *CatalogConfig) Validate() error {
	var errs []error
	for name, loc := range map[string]string{"count_url": c.CountURL, "data_url": c.DataURL} {
		if loc == "" {
			continue
		}
		if _, err := url.Parse(loc); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	}
	if c.AssetURL != "" && strings.Count(c.AssetURL, "{filename}") > 1 {
		errs = append(errs, errors.New("asset_url may contain {filename} at most once"))
	}
	return errors.Join(errs...)
}

// Ready reports whether both catalog locations are set.
func (c *CatalogConfig) Ready() bool {
	return c.CountURL != "" && c.DataURL != ""
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	switch c.Device {
	case "", "mpv":
		// valid
	default:
		return fmt.Errorf("invalid device: %s (must be mpv)", c.Device)
	}
	switch c.Mode {
	case "", "shuffle", "library":
		// valid
	default:
		return fmt.Errorf("invalid mode: %s (must be shuffle or library)", c.Mode)
	}
	if c.RecoveryDelayMS < 0 {
		return errors.New("recovery_delay_ms must be non-negative")
	}
	if c.TickIntervalMS < 0 {
		return errors.New("tick_interval_ms must be non-negative")
	}
	return nil
}

// Validate checks PrefsConfig for errors.
func (c *PrefsConfig) Validate() error {
	switch c.Backend {
	case "", "file", "sqlite", "memory":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be file, sqlite, or memory)", c.Backend)
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "console", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Format)
	}
	return nil
}
