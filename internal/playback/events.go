package playback

import (
	"time"

	"github.com/tessro/jukebox/internal/core"
)

// EventType represents the type of controller event.
type EventType int

const (
	EventStateChange EventType = iota
	EventTrackChange
	EventTitleChange
	EventProgress
	EventVolumeChange
	EventHint
	EventAssetError
)

func (t EventType) String() string {
	switch t {
	case EventStateChange:
		return "state_change"
	case EventTrackChange:
		return "track_change"
	case EventTitleChange:
		return "title_change"
	case EventProgress:
		return "progress"
	case EventVolumeChange:
		return "volume_change"
	case EventHint:
		return "hint"
	case EventAssetError:
		return "asset_error"
	default:
		return "unknown"
	}
}

// Event reports a controller side effect to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Session   core.Session

	// Title is set for EventTitleChange.
	Title string
	// Elapsed and Duration are set for EventProgress.
	Elapsed  string
	Duration string
	// Message is set for EventHint.
	Message string
	Err     error
}

// Listener receives controller events on the controller's goroutine.
type Listener func(Event)
