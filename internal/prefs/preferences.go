package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	jerrors "github.com/tessro/jukebox/internal/errors"
)

// Variant namespaces preferences per player mode.
type Variant string

const (
	VariantShuffle Variant = "shuffle"
	VariantLibrary Variant = "library"
)

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantShuffle, VariantLibrary:
		return v, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected shuffle or library)", s)
	}
}

// Preference names, relative to the variant prefix.
const (
	KeyVolume             = "volume"
	KeyDarkTheme          = "theme.dark"
	KeyEnabledArtists     = "artists.enabled"
	KeyFilterPanelVisible = "panel.filter_visible"
)

// Names lists the known preference names in startup read order.
var Names = []string{KeyVolume, KeyDarkTheme, KeyEnabledArtists, KeyFilterPanelVisible}

// DefaultVolume is used when no valid volume is stored.
const DefaultVolume = 1.0

// Settings is a snapshot of one variant's preferences.
type Settings struct {
	Volume             float64  `json:"volume"`
	DarkTheme          bool     `json:"dark_theme"`
	EnabledArtists     []string `json:"enabled_artists,omitempty"`
	HasEnabledArtists  bool     `json:"-"`
	FilterPanelVisible bool     `json:"filter_panel_visible"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{Volume: DefaultVolume}
}

// Preferences is the typed view of a Store for one variant. Write failures
// are logged and never returned; the player keeps running with in-memory
// state.
type Preferences struct {
	store   Store
	variant Variant
	logger  *slog.Logger
}

// New creates typed preferences over store.
func New(store Store, variant Variant, logger *slog.Logger) *Preferences {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Preferences{store: store, variant: variant, logger: logger}
}

// Variant returns the namespace.
func (p *Preferences) Variant() Variant {
	return p.variant
}

// Key returns the fully qualified key for name.
func (p *Preferences) Key(name string) string {
	return string(p.variant) + "." + name
}

// Load reads all preferences in startup order: volume, theme, artist set,
// panel visibility. Malformed values fall back to defaults; read errors are
// collected in the result.
func (p *Preferences) Load() jerrors.PartialResult[Settings] {
	var res jerrors.PartialResult[Settings]
	s := Defaults()

	if v, ok := p.get(KeyVolume, &res); ok {
		if f, err := parseVolume(v); err == nil {
			s.Volume = f
		} else {
			p.logger.Debug("ignoring malformed preference", slog.String("key", p.Key(KeyVolume)), slog.String("value", v))
		}
	}
	if v, ok := p.get(KeyDarkTheme, &res); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.DarkTheme = b
		}
	}
	if v, ok := p.get(KeyEnabledArtists, &res); ok {
		if names, err := parseArtists(v); err == nil {
			s.EnabledArtists = names
			s.HasEnabledArtists = true
		} else {
			p.logger.Debug("ignoring malformed preference", slog.String("key", p.Key(KeyEnabledArtists)), slog.String("error", err.Error()))
		}
	}
	if v, ok := p.get(KeyFilterPanelVisible, &res); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.FilterPanelVisible = b
		}
	}

	res.Data = s
	return res
}

// SetVolume stores v clamped to [0,1].
func (p *Preferences) SetVolume(v float64) {
	p.set(KeyVolume, strconv.FormatFloat(clampVolume(v), 'f', -1, 64))
}

// SetDarkTheme stores the theme choice.
func (p *Preferences) SetDarkTheme(dark bool) {
	p.set(KeyDarkTheme, strconv.FormatBool(dark))
}

// SetEnabledArtists stores the enabled artist names as a JSON list.
func (p *Preferences) SetEnabledArtists(names []string) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		p.logger.Warn("failed to encode artists", slog.String("error", err.Error()))
		return
	}
	p.set(KeyEnabledArtists, string(data))
}

// SetFilterPanelVisible stores the filter panel visibility.
func (p *Preferences) SetFilterPanelVisible(visible bool) {
	p.set(KeyFilterPanelVisible, strconv.FormatBool(visible))
}

// SetRaw validates and stores a value given by name, as typed on the
// command line.
func (p *Preferences) SetRaw(name, value string) error {
	switch name {
	case KeyVolume:
		f, err := parseVolume(value)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", value, err)
		}
		return p.store.Set(p.Key(name), strconv.FormatFloat(f, 'f', -1, 64))
	case KeyDarkTheme, KeyFilterPanelVisible:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q for %s", value, name)
		}
		return p.store.Set(p.Key(name), strconv.FormatBool(b))
	case KeyEnabledArtists:
		names := splitArtists(value)
		data, err := json.Marshal(names)
		if err != nil {
			return err
		}
		return p.store.Set(p.Key(name), string(data))
	default:
		return fmt.Errorf("%w: %s", jerrors.ErrUnknownPreference, name)
	}
}

// Reset removes every preference of the variant.
func (p *Preferences) Reset() error {
	for _, name := range Names {
		if err := p.store.Delete(p.Key(name)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Preferences) get(name string, res *jerrors.PartialResult[Settings]) (string, bool) {
	v, ok, err := p.store.Get(p.Key(name))
	if err != nil {
		res.AddError(err)
		p.logger.Warn("failed to read preference", slog.String("key", p.Key(name)), slog.String("error", err.Error()))
		return "", false
	}
	return v, ok
}

func (p *Preferences) set(name, value string) {
	if err := p.store.Set(p.Key(name), value); err != nil {
		p.logger.Warn("failed to write preference",
			slog.String("key", p.Key(name)),
			slog.String("error", err.Error()))
	}
}

func parseVolume(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f != f {
		return 0, fmt.Errorf("not a number")
	}
	return clampVolume(f), nil
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseArtists(s string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, err
	}
	return names, nil
}

// splitArtists accepts either a JSON list or a comma-separated list.
func splitArtists(s string) []string {
	if names, err := parseArtists(s); err == nil {
		return names
	}
	names := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
