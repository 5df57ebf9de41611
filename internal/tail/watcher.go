package tail

import (
	"context"
	"sync"

	"github.com/tessro/jukebox/internal/playback"
)

// Event is a playback event as printed by tail.
type Event = playback.Event

// Watcher buffers engine events for a consumer on another goroutine.
type Watcher struct {
	events   chan Event
	done     chan struct{}
	once     sync.Once
	progress bool
	titles   bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithProgress forwards progress ticks.
func WithProgress(enabled bool) WatcherOption {
	return func(w *Watcher) {
		w.progress = enabled
	}
}

// WithTitles forwards title changes, which duplicate play/pause states.
func WithTitles(enabled bool) WatcherOption {
	return func(w *Watcher) {
		w.titles = enabled
	}
}

// NewWatcher creates a new watcher.
func NewWatcher(opts ...WatcherOption) *Watcher {
	w := &Watcher{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Observe is a playback.Listener. It never blocks the caller.
func (w *Watcher) Observe(e Event) {
	if !w.wants(e) {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- e:
	default:
		// Drop event if channel is full
	}
}

// Events returns the channel of forwarded events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Follow calls fn for every forwarded event until ctx is done or Stop.
func (w *Watcher) Follow(ctx context.Context, fn func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case e := <-w.events:
			fn(e)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *Watcher) wants(e Event) bool {
	switch e.Type {
	case playback.EventProgress:
		return w.progress
	case playback.EventTitleChange:
		return w.titles
	default:
		return true
	}
}
