package core

import (
	"errors"
	"time"
)

// ErrAutoplayRejected is returned by Device.Play when the platform declines
// playback that was not preceded by a user gesture.
var ErrAutoplayRejected = errors.New("autoplay rejected")

// DeviceEventType identifies a device callback.
type DeviceEventType int

const (
	// DeviceLoaded reports the asset is ready to play.
	DeviceLoaded DeviceEventType = iota
	// DeviceProgress reports elapsed/duration.
	DeviceProgress
	// DeviceEnded reports natural completion.
	DeviceEnded
	// DeviceFailed reports a load or decode error.
	DeviceFailed
)

func (t DeviceEventType) String() string {
	switch t {
	case DeviceLoaded:
		return "loaded"
	case DeviceProgress:
		return "progress"
	case DeviceEnded:
		return "ended"
	case DeviceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeviceEvent is delivered by a Device for the load identified by LoadID.
// Duration is zero when unknown.
type DeviceEvent struct {
	Type     DeviceEventType
	LoadID   string
	Elapsed  time.Duration
	Duration time.Duration
	Err      error
}

// Device is the audio-rendering handle driven by the playback controller.
// Load is asynchronous: completion and failure are reported through Events
// tagged with the load id.
type Device interface {
	Load(loadID, url string) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(volume float64) error
	Events() <-chan DeviceEvent
	Close() error
}
