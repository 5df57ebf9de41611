package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Device:          "mpv",
			MPVPath:         "mpv",
			RecoveryDelayMS: 2000,
			TickIntervalMS:  500,
			Mode:            "shuffle",
		},
		Prefs: PrefsConfig{
			Backend: "file",
		},
		Tail: TailConfig{
			Emoji: true,
		},
		TUI: TUIConfig{
			RefreshInterval: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Playback
	if c.Playback.Device == "" {
		c.Playback.Device = d.Playback.Device
	}
	if c.Playback.MPVPath == "" {
		c.Playback.MPVPath = d.Playback.MPVPath
	}
	if c.Playback.RecoveryDelayMS == 0 {
		c.Playback.RecoveryDelayMS = d.Playback.RecoveryDelayMS
	}
	if c.Playback.TickIntervalMS == 0 {
		c.Playback.TickIntervalMS = d.Playback.TickIntervalMS
	}
	if c.Playback.Mode == "" {
		c.Playback.Mode = d.Playback.Mode
	}

	// Prefs
	if c.Prefs.Backend == "" {
		c.Prefs.Backend = d.Prefs.Backend
	}

	// TUI
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
