// Package engine wires the catalog, artist filter, shuffle scheduler,
// playback controller and preferences together behind a single event loop.
//
// Every method that reads or mutates engine state must run on the loop.
// Callers outside the loop use Do or Call.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
	"github.com/tessro/jukebox/internal/filter"
	"github.com/tessro/jukebox/internal/library"
	"github.com/tessro/jukebox/internal/playback"
	"github.com/tessro/jukebox/internal/prefs"
	"github.com/tessro/jukebox/internal/shuffle"
)

const (
	// HistorySize is the number of recently loaded tracks kept.
	HistorySize = 20

	// SeekStep is the fraction moved by SeekBy from the keyboard.
	SeekStep = 0.05

	// VolumeStep is the volume change applied by AdjustVolume from the keyboard.
	VolumeStep = 0.05

	actionBuffer = 64
)

// Engine owns all playback state.
type Engine struct {
	lib      *catalog.Library
	device   core.Device
	filter   *filter.Filter
	sched    *shuffle.Scheduler
	ctrl     *playback.Controller
	prefs    *prefs.Preferences
	view     *library.View
	resolver playback.Resolver
	logger   *slog.Logger

	variant       prefs.Variant
	rng           *rand.Rand
	recoveryDelay time.Duration
	timer         playback.Timer

	darkTheme    bool
	panelVisible bool
	hint         string
	history      []*core.Track
	fresh        bool
	listeners    []playback.Listener

	actions chan func(*Engine)
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVariant selects the preference namespace.
func WithVariant(v prefs.Variant) Option {
	return func(e *Engine) {
		if v != "" {
			e.variant = v
		}
	}
}

// WithResolver sets how filenames become playable addresses.
func WithResolver(r playback.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithRand seeds the shuffle scheduler.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithRecoveryDelay sets the delay before skipping a failed track.
func WithRecoveryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.recoveryDelay = d
	}
}

// WithTimer replaces the loop timer used for delayed recovery.
func WithTimer(t playback.Timer) Option {
	return func(e *Engine) {
		e.timer = t
	}
}

// New builds an engine over lib. Preferences are read once, in order:
// volume, theme, artist set, panel visibility. The play order is shuffled
// before New returns.
func New(lib *catalog.Library, device core.Device, store prefs.Store, opts ...Option) (*Engine, error) {
	if lib.Len() == 0 {
		return nil, jerrors.ErrNoTracks
	}
	if device == nil {
		return nil, jerrors.ErrDeviceUnavailable
	}
	if store == nil {
		store = prefs.NewMemoryStore()
	}

	e := &Engine{
		lib:           lib,
		device:        device,
		view:          library.NewView(lib.Tracks),
		resolver:      catalog.NewAssetResolver(""),
		logger:        slog.New(slog.DiscardHandler),
		variant:       prefs.VariantShuffle,
		recoveryDelay: playback.DefaultRecoveryDelay,
		actions:       make(chan func(*Engine), actionBuffer),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timer == nil {
		e.timer = loopTimer{e}
	}

	var schedOpts []shuffle.Option
	if e.rng != nil {
		schedOpts = append(schedOpts, shuffle.WithRand(e.rng))
	}
	e.sched = shuffle.New(schedOpts...)
	e.filter = filter.New(lib.Universe)
	e.prefs = prefs.New(store, e.variant, e.logger.With(slog.String("component", "prefs")))
	e.ctrl = playback.NewController(device, e.resolver, schedulerFunc(e.nextTrack),
		playback.WithTimer(e.timer),
		playback.WithRecoveryDelay(e.recoveryDelay),
		playback.WithLogger(e.logger.With(slog.String("component", "playback"))))
	e.ctrl.Subscribe(e.onPlaybackEvent)

	e.restore()
	e.filter.OnChange(e.onFilterChange)
	return e, nil
}

func (e *Engine) restore() {
	res := e.prefs.Load()
	if res.HasErrors() {
		e.logger.Warn("some preferences could not be read", slog.String("errors", res.ErrorSummary()))
	}
	s := res.Data

	e.ctrl.SetVolume(s.Volume)
	e.darkTheme = s.DarkTheme
	if s.HasEnabledArtists {
		e.filter.Restore(s.EnabledArtists)
	}
	e.panelVisible = s.FilterPanelVisible

	e.sched.Reshuffle(e.filter.Candidates(e.lib.Tracks))
	e.fresh = true
	e.logger.Info("engine ready",
		slog.Int("tracks", e.lib.Len()),
		slog.String("artists", e.filter.Summary().String()),
		slog.String("variant", string(e.variant)))
}

// Run processes device events and posted actions until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	events := e.device.Events()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				e.logger.Warn("device event stream closed")
				events = nil
				continue
			}
			e.ctrl.HandleDeviceEvent(ev)
		case fn := <-e.actions:
			fn(e)
		}
	}
}

// Do posts fn to the loop. It returns false once the loop has stopped.
func (e *Engine) Do(fn func(*Engine)) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.actions <- fn:
		return true
	case <-e.done:
		return false
	}
}

// ErrStopped is returned by Call after the loop has exited.
var ErrStopped = errors.New("engine stopped")

// Call runs fn on the loop and waits for it to finish.
func (e *Engine) Call(ctx context.Context, fn func(*Engine)) error {
	finished := make(chan struct{})
	if !e.Do(func(e *Engine) {
		fn(e)
		close(finished)
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// Subscribe registers a playback event listener. Listeners run on the loop.
func (e *Engine) Subscribe(l playback.Listener) {
	e.listeners = append(e.listeners, l)
}

// Start loads the scheduler's current track. The first-load autoplay policy
// applies.
func (e *Engine) Start() {
	track, ok := e.sched.Current()
	if !ok {
		e.logger.Warn("nothing to play")
		return
	}
	e.fresh = false
	e.ctrl.LoadTrack(track)
}

// TogglePlay plays or pauses.
func (e *Engine) TogglePlay() {
	e.ctrl.NoteInteraction()
	e.ctrl.TogglePlay()
}

// Next skips to the next scheduled track.
func (e *Engine) Next() {
	e.ctrl.NoteInteraction()
	e.ctrl.AdvanceToNext()
}

// SeekBy moves the playhead by delta, a fraction of the track duration.
func (e *Engine) SeekBy(delta float64) {
	e.ctrl.NoteInteraction()
	s := e.ctrl.Session()
	if s.Duration <= 0 {
		return
	}
	e.ctrl.Seek(float64(s.Elapsed)/float64(s.Duration) + delta)
}

// SeekTo moves the playhead to fraction of the track duration.
func (e *Engine) SeekTo(fraction float64) {
	e.ctrl.NoteInteraction()
	e.ctrl.Seek(fraction)
}

// SetVolume applies and persists the volume.
func (e *Engine) SetVolume(v float64) {
	e.ctrl.NoteInteraction()
	e.ctrl.SetVolume(v)
	e.prefs.SetVolume(e.ctrl.Session().Volume)
}

// AdjustVolume changes the volume by delta.
func (e *Engine) AdjustVolume(delta float64) {
	e.SetVolume(e.ctrl.Session().Volume + delta)
}

// ToggleTheme flips between light and dark and persists the choice.
func (e *Engine) ToggleTheme() {
	e.darkTheme = !e.darkTheme
	e.prefs.SetDarkTheme(e.darkTheme)
}

// ToggleFilterPanel shows or hides the artist panel and persists the choice.
func (e *Engine) ToggleFilterPanel() {
	e.panelVisible = !e.panelVisible
	e.prefs.SetFilterPanelVisible(e.panelVisible)
}

// ToggleArtist enables or disables one artist.
func (e *Engine) ToggleArtist(name string) {
	e.filter.Toggle(name)
}

// SetArtistEnabled enables or disables one artist.
func (e *Engine) SetArtistEnabled(name string, enabled bool) {
	if enabled {
		e.filter.Enable(name)
	} else {
		e.filter.Disable(name)
	}
}

// SelectAllArtists enables every artist.
func (e *Engine) SelectAllArtists() {
	e.filter.SelectAll()
}

// SelectNoArtists reduces the set to a single artist.
func (e *Engine) SelectNoArtists() {
	e.filter.SelectNone()
}

// PlayTrack plays track directly without moving the shuffle cursor.
func (e *Engine) PlayTrack(track *core.Track) {
	e.ctrl.NoteInteraction()
	e.ctrl.PlayTrack(track)
}

// AssetURL returns the playable address of track.
func (e *Engine) AssetURL(track *core.Track) string {
	if track == nil {
		return ""
	}
	return e.resolver.Resolve(track.Filename)
}

// Library returns the searchable catalog view. It is immutable and safe to
// use off the loop.
func (e *Engine) Library() *library.View {
	return e.view
}

// Controller exposes the playback controller.
func (e *Engine) Controller() *playback.Controller {
	return e.ctrl
}

// Filter exposes the artist filter.
func (e *Engine) Filter() *filter.Filter {
	return e.filter
}

// Scheduler exposes the shuffle scheduler.
func (e *Engine) Scheduler() *shuffle.Scheduler {
	return e.sched
}

// nextTrack serves the controller. After a filter-driven reshuffle the
// first request returns the head of the new order instead of skipping it,
// unless the head is the track already loaded.
func (e *Engine) nextTrack() (*core.Track, bool) {
	if e.sched.Len() == 0 && e.filter.Universe().Len() > 0 {
		e.logger.Warn("candidate pool empty, enabling all artists")
		e.filter.SelectAll()
	}
	if e.fresh {
		e.fresh = false
		head, ok := e.sched.Current()
		if !ok || head != e.ctrl.Session().Track || e.sched.Len() < 2 {
			return head, ok
		}
	}
	return e.sched.Advance()
}

func (e *Engine) onFilterChange(f *filter.Filter, s filter.Summary) {
	e.prefs.SetEnabledArtists(f.Enabled())
	e.sched.Reshuffle(f.Candidates(e.lib.Tracks))
	e.fresh = true
	e.logger.Debug("artist filter changed",
		slog.String("summary", s.String()),
		slog.Int("pool", e.sched.Len()))
}

func (e *Engine) onPlaybackEvent(ev playback.Event) {
	switch ev.Type {
	case playback.EventTrackChange:
		if t := ev.Session.Track; t != nil {
			e.history = append(e.history, t)
			if len(e.history) > HistorySize {
				e.history = e.history[len(e.history)-HistorySize:]
			}
		}
	case playback.EventHint:
		e.hint = ev.Message
	case playback.EventStateChange:
		if ev.Session.State == core.StatePlaying {
			e.hint = ""
		}
	}
	for _, l := range e.listeners {
		l(ev)
	}
}

type schedulerFunc func() (*core.Track, bool)

func (f schedulerFunc) Next() (*core.Track, bool) { return f() }

// loopTimer runs timer callbacks on the engine loop.
type loopTimer struct {
	e *Engine
}

func (t loopTimer) AfterFunc(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, func() {
		t.e.Do(func(*Engine) { fn() })
	})
	return func() { timer.Stop() }
}
