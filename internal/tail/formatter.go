package tail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/playback"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	jsonOutput    bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithJSON emits one JSON object per event.
func WithJSON(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.jsonOutput = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.jsonOutput {
		return f.formatJSON(e)
	}
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	// Timestamp
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	// Emoji
	if f.showEmoji {
		parts = append(parts, eventEmoji(e))
	}

	// Event description
	parts = append(parts, Describe(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	var buf bytes.Buffer
	if err := f.template.Execute(&buf, newTemplateData(e)); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

func (f *Formatter) formatJSON(e Event) string {
	data, err := json.Marshal(newTemplateData(e))
	if err != nil {
		return f.formatLine(e)
	}
	return string(data)
}

type templateData struct {
	Type        string    `json:"type"`
	Emoji       string    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
	Time        string    `json:"-"`
	State       string    `json:"state"`
	Title       string    `json:"title,omitempty"`
	Artist      string    `json:"artist,omitempty"`
	Album       string    `json:"album,omitempty"`
	Elapsed     string    `json:"elapsed,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Volume      int       `json:"volume"`
	Message     string    `json:"message,omitempty"`
	Description string    `json:"description"`
}

func newTemplateData(e Event) templateData {
	data := templateData{
		Type:        e.Type.String(),
		Emoji:       eventEmoji(e),
		Timestamp:   e.Timestamp,
		Time:        e.Timestamp.Format("15:04:05"),
		State:       e.Session.State.String(),
		Elapsed:     e.Elapsed,
		Duration:    e.Duration,
		Volume:      volumePercent(e.Session.Volume),
		Message:     e.Message,
		Description: Describe(e),
	}
	if t := e.Session.Track; t != nil {
		data.Title = t.Title
		data.Artist = t.Artist
		data.Album = t.Album
	}
	if e.Err != nil && data.Message == "" {
		data.Message = e.Err.Error()
	}
	return data
}

// Describe returns a human-readable description of the event.
func Describe(e Event) string {
	track := e.Session.Track
	switch e.Type {
	case playback.EventTrackChange:
		if track != nil {
			return fmt.Sprintf("Now playing: %s - %s", track.Artist, track.Title)
		}
		return "Track changed"

	case playback.EventStateChange:
		switch e.Session.State {
		case core.StateLoading:
			return "Loading"
		case core.StateReady:
			return "Ready"
		case core.StatePlaying:
			return "Playing"
		case core.StatePaused:
			return "Paused"
		case core.StateEnded:
			return "Finished"
		case core.StateError:
			return "Playback error"
		default:
			return "Stopped"
		}

	case playback.EventTitleChange:
		return e.Title

	case playback.EventProgress:
		return fmt.Sprintf("%s / %s", e.Elapsed, e.Duration)

	case playback.EventVolumeChange:
		return fmt.Sprintf("Volume: %d%%", volumePercent(e.Session.Volume))

	case playback.EventHint:
		return e.Message

	case playback.EventAssetError:
		if track != nil && e.Err != nil {
			return fmt.Sprintf("Skipping %s - %s: %v", track.Artist, track.Title, e.Err)
		}
		return "Skipping track"

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event.
func eventEmoji(e Event) string {
	switch e.Type {
	case playback.EventTrackChange:
		return "🎵"
	case playback.EventStateChange:
		switch e.Session.State {
		case core.StatePlaying:
			return "▶️"
		case core.StatePaused:
			return "⏸️"
		case core.StateEnded:
			return "✅"
		case core.StateError:
			return "⚠️"
		default:
			return "⏳"
		}
	case playback.EventTitleChange:
		return "🏷️"
	case playback.EventProgress:
		return "⏱️"
	case playback.EventVolumeChange:
		return "🔊"
	case playback.EventHint:
		return "💡"
	case playback.EventAssetError:
		return "⏭️"
	default:
		return "❓"
	}
}

func volumePercent(v float64) int {
	return int(v*100 + 0.5)
}
