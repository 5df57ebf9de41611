package core

import "time"

// State is the playback controller state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateError
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the live playback session.
type Session struct {
	ID        string        `json:"id"`
	Track     *Track        `json:"track"`
	State     State         `json:"state"`
	Elapsed   time.Duration `json:"elapsed"`
	Duration  time.Duration `json:"duration"`
	Volume    float64       `json:"volume"`
	LastError error         `json:"-"`
}

// HasTrack returns true if there is a current track.
func (s *Session) HasTrack() bool {
	return s != nil && s.Track != nil
}

// IsPlaying returns true while audio is being rendered.
func (s *Session) IsPlaying() bool {
	return s != nil && s.State == StatePlaying
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *Session) ProgressPercent() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	p := float64(s.Elapsed) / float64(s.Duration) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
