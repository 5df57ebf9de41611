package playback

import "time"

// Timer schedules delayed work. Implementations used with the engine must
// run fn on the engine's event loop.
type Timer interface {
	AfterFunc(d time.Duration, fn func()) (stop func())
}

// TimerFunc adapts a function to Timer.
type TimerFunc func(d time.Duration, fn func()) (stop func())

// AfterFunc calls f.
func (f TimerFunc) AfterFunc(d time.Duration, fn func()) func() {
	return f(d, fn)
}

type wallTimer struct{}

func (wallTimer) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
