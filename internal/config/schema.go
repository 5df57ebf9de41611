package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog" json:"catalog"`
	Playback PlaybackConfig `toml:"playback" json:"playback"`
	Prefs    PrefsConfig    `toml:"prefs" json:"prefs"`
	Tail     TailConfig     `toml:"tail" json:"tail"`
	TUI      TUIConfig      `toml:"tui" json:"tui"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// CatalogConfig locates the track catalog and the audio files it names.
type CatalogConfig struct {
	CountURL string `toml:"count_url" json:"count_url"`
	DataURL  string `toml:"data_url" json:"data_url"`
	AssetURL string `toml:"asset_url" json:"asset_url"`
}

// PlaybackConfig holds playback device settings.
type PlaybackConfig struct {
	Device          string `toml:"device" json:"device"`
	MPVPath         string `toml:"mpv_path" json:"mpv_path"`
	RecoveryDelayMS int    `toml:"recovery_delay_ms" json:"recovery_delay_ms"`
	TickIntervalMS  int    `toml:"tick_interval_ms" json:"tick_interval_ms"`
	Mode            string `toml:"mode" json:"mode"`
}

// RecoveryDelay returns the recovery delay as a duration.
func (c PlaybackConfig) RecoveryDelay() time.Duration {
	return time.Duration(c.RecoveryDelayMS) * time.Millisecond
}

// TickInterval returns the progress tick interval as a duration.
func (c PlaybackConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// PrefsConfig selects where preferences are stored.
type PrefsConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Path    string `toml:"path" json:"path"`
}

// TailConfig holds settings for headless event output.
type TailConfig struct {
	Emoji     bool   `toml:"emoji" json:"emoji"`
	Timestamp bool   `toml:"timestamp" json:"timestamp"`
	Template  string `toml:"template" json:"template"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	RefreshInterval int `toml:"refresh_interval" json:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	File   string `toml:"file" json:"file"`
}
