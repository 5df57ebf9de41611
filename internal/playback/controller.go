// Package playback drives a single playback device through the
// load/play/pause/advance state machine.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
)

// DefaultRecoveryDelay is how long the controller waits after an asset
// error before loading the next track.
const DefaultRecoveryDelay = 2 * time.Second

// AutoplayHint is shown when the platform rejects playback before the user
// has interacted.
const AutoplayHint = "Press space to start playback"

// Scheduler supplies the next track to play.
type Scheduler interface {
	Next() (*core.Track, bool)
}

// Resolver maps a track filename to a playable address.
type Resolver interface {
	Resolve(filename string) string
}

// Controller is the playback state machine. It is not safe for concurrent
// use; all calls, device events and timer callbacks must arrive on one
// goroutine.
type Controller struct {
	device        core.Device
	resolver      Resolver
	scheduler     Scheduler
	timer         Timer
	recoveryDelay time.Duration
	logger        *slog.Logger
	listeners     []Listener
	now           func() time.Time

	session       core.Session
	loadID        string
	interacted    bool
	firstLoadDone bool
	resumeOnReady bool
	hintShown     bool
	stopRecovery  func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimer sets the timer used for delayed recovery.
func WithTimer(t Timer) Option {
	return func(c *Controller) {
		if t != nil {
			c.timer = t
		}
	}
}

// WithRecoveryDelay sets the delay between an asset error and the next load.
func WithRecoveryDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.recoveryDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a controller in the Idle state.
func NewController(device core.Device, resolver Resolver, scheduler Scheduler, opts ...Option) *Controller {
	c := &Controller{
		device:        device,
		resolver:      resolver,
		scheduler:     scheduler,
		timer:         wallTimer{},
		recoveryDelay: DefaultRecoveryDelay,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
		session: core.Session{
			ID:     uuid.NewString(),
			State:  core.StateIdle,
			Volume: 1,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an event listener.
func (c *Controller) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Session returns a snapshot of the playback session.
func (c *Controller) Session() core.Session {
	return c.session
}

// State returns the current state.
func (c *Controller) State() core.State {
	return c.session.State
}

// Interacted reports whether a user interaction has been observed.
func (c *Controller) Interacted() bool {
	return c.interacted
}

// NoteInteraction records a user gesture. The flag never resets.
func (c *Controller) NoteInteraction() {
	c.interacted = true
}

// LoadTrack points the device at track and enters Loading. The very first
// load autoplays once ready if the user has already interacted.
func (c *Controller) LoadTrack(track *core.Track) {
	resume := false
	if !c.firstLoadDone {
		resume = c.interacted
	}
	c.load(track, resume)
}

// PlayTrack loads track directly, bypassing the scheduler. Playback starts
// once ready if the user has interacted.
func (c *Controller) PlayTrack(track *core.Track) {
	c.load(track, c.interacted)
}

// TogglePlay starts playback from Ready or Paused and pauses from Playing.
// While Loading it toggles the intent to play once ready.
func (c *Controller) TogglePlay() {
	switch c.session.State {
	case core.StatePlaying:
		if err := c.device.Pause(); err != nil {
			c.logger.Warn("pause failed", slog.String("error", err.Error()))
			return
		}
		c.setState(core.StatePaused)
	case core.StatePaused, core.StateReady:
		c.startPlayback()
	case core.StateLoading:
		c.resumeOnReady = !c.resumeOnReady
	}
}

// Seek moves to fraction of the known duration. No-op if duration is unknown.
func (c *Controller) Seek(fraction float64) {
	if c.session.Duration <= 0 || c.session.Track == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	pos := time.Duration(fraction * float64(c.session.Duration))
	if err := c.device.Seek(pos); err != nil {
		c.logger.Warn("seek failed", slog.String("error", err.Error()))
		return
	}
	c.session.Elapsed = pos
	c.emitProgress()
}

// SetVolume clamps v to [0,1] and applies it to the device.
func (c *Controller) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	if err := c.device.SetVolume(v); err != nil {
		c.logger.Warn("set volume failed", slog.String("error", err.Error()))
	}
	c.session.Volume = v
	c.emit(Event{Type: EventVolumeChange})
}

// AdvanceToNext loads the next scheduled track. Playback resumes once the
// new track is ready if it was active before and the user has interacted.
func (c *Controller) AdvanceToNext() {
	c.advance(c.wasPlaying())
}

// HandleDeviceEvent applies a device callback. Events belonging to a
// superseded load are ignored.
func (c *Controller) HandleDeviceEvent(ev core.DeviceEvent) {
	if ev.LoadID != c.loadID || c.loadID == "" {
		c.logger.Debug("ignoring stale device event",
			slog.String("event", ev.Type.String()),
			slog.String("load_id", ev.LoadID))
		return
	}

	switch ev.Type {
	case core.DeviceLoaded:
		c.onLoaded(ev)
	case core.DeviceProgress:
		c.onProgress(ev)
	case core.DeviceEnded:
		c.onEnded()
	case core.DeviceFailed:
		c.onFailed(ev.Err)
	}
}

func (c *Controller) load(track *core.Track, resume bool) {
	if track == nil {
		return
	}
	c.cancelRecovery()
	c.firstLoadDone = true

	id := uuid.NewString()
	c.loadID = id
	c.resumeOnReady = resume
	c.session.Track = track
	c.session.Elapsed = 0
	c.session.Duration = 0
	c.session.LastError = nil

	c.setState(core.StateLoading)
	c.emit(Event{Type: EventTrackChange})
	c.emitProgress()

	url := c.resolver.Resolve(track.Filename)
	c.logger.Info("loading track",
		slog.String("title", track.Title),
		slog.String("artist", track.Artist),
		slog.String("url", url))

	if err := c.device.Load(id, url); err != nil {
		c.onFailed(err)
	}
}

func (c *Controller) advance(wasPlaying bool) {
	track, ok := c.scheduler.Next()
	if !ok {
		c.logger.Warn("no track to advance to")
		c.cancelRecovery()
		c.loadID = ""
		c.session.Track = nil
		c.setState(core.StateIdle)
		return
	}
	c.load(track, wasPlaying && c.interacted)
}

func (c *Controller) wasPlaying() bool {
	switch c.session.State {
	case core.StatePlaying:
		return true
	case core.StateLoading:
		return c.resumeOnReady
	default:
		return false
	}
}

func (c *Controller) startPlayback() {
	err := c.device.Play()
	if err == nil {
		c.setState(core.StatePlaying)
		return
	}

	if errors.Is(err, core.ErrAutoplayRejected) {
		c.logger.Debug("playback rejected", slog.Bool("interacted", c.interacted))
	} else {
		c.logger.Warn("play failed", slog.String("error", err.Error()))
	}
	if !c.interacted && !c.hintShown {
		c.hintShown = true
		c.emit(Event{Type: EventHint, Message: AutoplayHint, Err: err})
	}
}

func (c *Controller) onLoaded(ev core.DeviceEvent) {
	if c.session.State != core.StateLoading {
		return
	}
	if ev.Duration > 0 {
		c.session.Duration = ev.Duration
	}
	c.setState(core.StateReady)
	if c.resumeOnReady {
		c.resumeOnReady = false
		c.startPlayback()
	}
}

func (c *Controller) onProgress(ev core.DeviceEvent) {
	if ev.Elapsed >= 0 {
		c.session.Elapsed = ev.Elapsed
	}
	if ev.Duration > 0 {
		c.session.Duration = ev.Duration
	}
	c.emitProgress()
}

func (c *Controller) onEnded() {
	wasPlaying := c.session.State == core.StatePlaying
	c.setState(core.StateEnded)
	c.advance(wasPlaying)
}

func (c *Controller) onFailed(cause error) {
	wasPlaying := c.wasPlaying()
	if cause == nil {
		cause = errors.New("device error")
	}
	err := fmt.Errorf("%w: %w", jerrors.ErrAssetFailed, cause)

	c.cancelRecovery()
	c.session.LastError = err
	c.resumeOnReady = false
	c.setState(core.StateError)
	c.emit(Event{Type: EventAssetError, Err: err})

	title := ""
	if c.session.Track != nil {
		title = c.session.Track.Title
	}
	c.logger.Warn("asset failed, skipping",
		slog.String("title", title),
		slog.String("error", cause.Error()),
		slog.Duration("delay", c.recoveryDelay))

	id := c.loadID
	c.stopRecovery = c.timer.AfterFunc(c.recoveryDelay, func() {
		if c.loadID != id || c.session.State != core.StateError {
			return
		}
		c.stopRecovery = nil
		c.advance(wasPlaying)
	})
}

func (c *Controller) cancelRecovery() {
	if c.stopRecovery != nil {
		c.stopRecovery()
		c.stopRecovery = nil
	}
}

func (c *Controller) setState(s core.State) {
	prev := c.session.State
	c.session.State = s
	if prev != s {
		c.logger.Debug("state change", slog.String("from", prev.String()), slog.String("to", s.String()))
		c.emit(Event{Type: EventStateChange})
	}
	if s == core.StatePlaying || s == core.StatePaused {
		c.emit(Event{Type: EventTitleChange, Title: DisplayTitle(s, c.session.Track)})
	}
}

func (c *Controller) emitProgress() {
	c.emit(Event{
		Type:     EventProgress,
		Elapsed:  FormatDuration(c.session.Elapsed),
		Duration: FormatDuration(c.session.Duration),
	})
}

func (c *Controller) emit(ev Event) {
	ev.Timestamp = c.now()
	ev.Session = c.session
	for _, l := range c.listeners {
		l(ev)
	}
}
