package playback

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
)

type loadCall struct {
	id  string
	url string
}

type fakeDevice struct {
	loads   []loadCall
	plays   int
	pauses  int
	seeks   []time.Duration
	volume  float64
	playErr error
	loadErr error
}

func (d *fakeDevice) Load(id, url string) error {
	d.loads = append(d.loads, loadCall{id, url})
	return d.loadErr
}

func (d *fakeDevice) Play() error {
	d.plays++
	return d.playErr
}

func (d *fakeDevice) Pause() error {
	d.pauses++
	return nil
}

func (d *fakeDevice) Seek(pos time.Duration) error {
	d.seeks = append(d.seeks, pos)
	return nil
}

func (d *fakeDevice) SetVolume(v float64) error {
	d.volume = v
	return nil
}

func (d *fakeDevice) Events() <-chan core.DeviceEvent { return nil }
func (d *fakeDevice) Close() error                    { return nil }

func (d *fakeDevice) lastID() string {
	if len(d.loads) == 0 {
		return ""
	}
	return d.loads[len(d.loads)-1].id
}

type listScheduler struct {
	tracks []*core.Track
	next   int
}

func (s *listScheduler) Next() (*core.Track, bool) {
	if len(s.tracks) == 0 {
		return nil, false
	}
	t := s.tracks[s.next%len(s.tracks)]
	s.next++
	return t, true
}

type pendingTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

type fakeTimer struct {
	pending []*pendingTimer
}

func (f *fakeTimer) AfterFunc(d time.Duration, fn func()) func() {
	p := &pendingTimer{d: d, fn: fn}
	f.pending = append(f.pending, p)
	return func() { p.stopped = true }
}

func (f *fakeTimer) fire() int {
	fired := 0
	pending := f.pending
	f.pending = nil
	for _, p := range pending {
		if !p.stopped {
			p.fn()
			fired++
		}
	}
	return fired
}

type prefixResolver string

func (p prefixResolver) Resolve(filename string) string { return string(p) + filename }

func tracks(n int) []*core.Track {
	out := make([]*core.Track, n)
	for i := range out {
		out[i] = &core.Track{
			Filename: fmt.Sprintf("%d.mp3", i),
			Title:    fmt.Sprintf("Song %d", i),
			Artist:   "Artist",
		}
	}
	return out
}

type harness struct {
	dev    *fakeDevice
	timer  *fakeTimer
	sched  *listScheduler
	ctrl   *Controller
	events []Event
}

func newHarness(n int) *harness {
	h := &harness{
		dev:   &fakeDevice{},
		timer: &fakeTimer{},
		sched: &listScheduler{tracks: tracks(n)},
	}
	h.ctrl = NewController(h.dev, prefixResolver("https://cdn/"), h.sched,
		WithTimer(h.timer),
		WithRecoveryDelay(1500*time.Millisecond))
	h.ctrl.Subscribe(func(e Event) { h.events = append(h.events, e) })
	return h
}

func (h *harness) loaded() {
	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceLoaded, LoadID: h.dev.lastID(), Duration: 3 * time.Minute})
}

func (h *harness) countEvents(t EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func TestLoadTrackResolvesAndEntersLoading(t *testing.T) {
	h := newHarness(2)
	tr := h.sched.tracks[0]

	h.ctrl.LoadTrack(tr)

	if h.ctrl.State() != core.StateLoading {
		t.Fatalf("State() = %v, want loading", h.ctrl.State())
	}
	if len(h.dev.loads) != 1 || h.dev.loads[0].url != "https://cdn/0.mp3" {
		t.Fatalf("loads = %+v", h.dev.loads)
	}
	if h.ctrl.Session().Track != tr {
		t.Error("session track not set")
	}
}

func TestFirstTrackNoAutoplayWithoutInteraction(t *testing.T) {
	h := newHarness(2)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()

	if h.ctrl.State() != core.StateReady {
		t.Fatalf("State() = %v, want ready", h.ctrl.State())
	}
	if h.dev.plays != 0 {
		t.Errorf("plays = %d, want 0", h.dev.plays)
	}
}

func TestFirstTrackAutoplaysAfterInteraction(t *testing.T) {
	h := newHarness(2)
	h.ctrl.NoteInteraction()
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()

	if h.ctrl.State() != core.StatePlaying {
		t.Fatalf("State() = %v, want playing", h.ctrl.State())
	}

	// Autoplay applies to the first load only.
	h.ctrl.LoadTrack(h.sched.tracks[1])
	h.loaded()
	if h.ctrl.State() != core.StateReady {
		t.Errorf("second LoadTrack state = %v, want ready", h.ctrl.State())
	}
}

func TestTogglePlay(t *testing.T) {
	h := newHarness(1)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()

	h.ctrl.TogglePlay()
	if h.ctrl.State() != core.StatePlaying {
		t.Fatalf("State() = %v, want playing", h.ctrl.State())
	}
	h.ctrl.TogglePlay()
	if h.ctrl.State() != core.StatePaused {
		t.Fatalf("State() = %v, want paused", h.ctrl.State())
	}
	if h.dev.pauses != 1 {
		t.Errorf("pauses = %d, want 1", h.dev.pauses)
	}
	h.ctrl.TogglePlay()
	if h.ctrl.State() != core.StatePlaying {
		t.Fatalf("State() = %v, want playing", h.ctrl.State())
	}
}

func TestTitleUpdatesOnPlayAndPause(t *testing.T) {
	h := newHarness(1)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()
	h.ctrl.TogglePlay()
	h.ctrl.TogglePlay()

	var titles []string
	for _, e := range h.events {
		if e.Type == EventTitleChange {
			titles = append(titles, e.Title)
		}
	}
	want := []string{"▶ Song 0 — Artist", "⏸ Song 0 — Artist"}
	if len(titles) != 2 || titles[0] != want[0] || titles[1] != want[1] {
		t.Errorf("titles = %q, want %q", titles, want)
	}
}

func TestAutoplayRejectedHintOnlyBeforeInteraction(t *testing.T) {
	h := newHarness(1)
	h.dev.playErr = core.ErrAutoplayRejected
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()

	h.ctrl.TogglePlay()
	if h.ctrl.State() != core.StateReady {
		t.Fatalf("State() = %v, want ready", h.ctrl.State())
	}
	if n := h.countEvents(EventHint); n != 1 {
		t.Fatalf("hints = %d, want 1", n)
	}

	// The hint is one-time.
	h.ctrl.TogglePlay()
	if n := h.countEvents(EventHint); n != 1 {
		t.Errorf("hints after retry = %d, want 1", n)
	}
}

func TestAutoplayRejectedSilentAfterInteraction(t *testing.T) {
	h := newHarness(1)
	h.dev.playErr = core.ErrAutoplayRejected
	h.ctrl.NoteInteraction()
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()

	if h.ctrl.State() != core.StateReady {
		t.Fatalf("State() = %v, want ready", h.ctrl.State())
	}
	if n := h.countEvents(EventHint); n != 0 {
		t.Errorf("hints = %d, want 0", n)
	}
}

func TestSeek(t *testing.T) {
	h := newHarness(1)
	h.ctrl.LoadTrack(h.sched.tracks[0])

	// Duration unknown.
	h.ctrl.Seek(0.5)
	if len(h.dev.seeks) != 0 {
		t.Fatalf("seeked with unknown duration: %v", h.dev.seeks)
	}

	h.loaded()
	tests := []struct {
		fraction float64
		want     time.Duration
	}{
		{0.5, 90 * time.Second},
		{-1, 0},
		{2, 3 * time.Minute},
	}
	for _, tt := range tests {
		h.ctrl.Seek(tt.fraction)
		got := h.dev.seeks[len(h.dev.seeks)-1]
		if got != tt.want {
			t.Errorf("Seek(%v) -> %v, want %v", tt.fraction, got, tt.want)
		}
	}
}

func TestEndedAdvancesImmediatelyAndResumes(t *testing.T) {
	h := newHarness(3)
	h.ctrl.NoteInteraction()
	first, _ := h.sched.Next()
	h.ctrl.LoadTrack(first)
	h.loaded()
	if h.ctrl.State() != core.StatePlaying {
		t.Fatalf("State() = %v, want playing", h.ctrl.State())
	}

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceEnded, LoadID: h.dev.lastID()})

	if len(h.dev.loads) != 2 {
		t.Fatalf("loads = %d, want 2", len(h.dev.loads))
	}
	if len(h.timer.pending) != 0 {
		t.Error("ended should not schedule a delayed recovery")
	}
	h.loaded()
	if h.ctrl.State() != core.StatePlaying {
		t.Errorf("State() = %v, want playing after advance", h.ctrl.State())
	}
}

func TestErrorRecoversAfterDelay(t *testing.T) {
	h := newHarness(3)
	h.ctrl.NoteInteraction()
	first, _ := h.sched.Next()
	h.ctrl.LoadTrack(first)
	h.loaded()

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{
		Type:   core.DeviceFailed,
		LoadID: h.dev.lastID(),
		Err:    errors.New("decode error"),
	})

	if h.ctrl.State() != core.StateError {
		t.Fatalf("State() = %v, want error", h.ctrl.State())
	}
	if !errors.Is(h.ctrl.Session().LastError, jerrors.ErrAssetFailed) {
		t.Errorf("LastError = %v", h.ctrl.Session().LastError)
	}
	if len(h.dev.loads) != 1 {
		t.Fatal("next track loaded before the recovery delay")
	}
	if len(h.timer.pending) != 1 || h.timer.pending[0].d != 1500*time.Millisecond {
		t.Fatalf("pending timers = %+v", h.timer.pending)
	}

	h.timer.fire()
	if len(h.dev.loads) != 2 || h.dev.loads[1].url != "https://cdn/1.mp3" {
		t.Fatalf("loads after recovery = %+v", h.dev.loads)
	}
	h.loaded()
	if h.ctrl.State() != core.StatePlaying {
		t.Errorf("State() = %v, want playing (was playing before error)", h.ctrl.State())
	}
}

func TestErrorWhilePausedDoesNotResume(t *testing.T) {
	h := newHarness(3)
	h.ctrl.NoteInteraction()
	first, _ := h.sched.Next()
	h.ctrl.LoadTrack(first)
	h.loaded()
	h.ctrl.TogglePlay() // pause

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceFailed, LoadID: h.dev.lastID()})
	h.timer.fire()
	h.loaded()

	if h.ctrl.State() != core.StateReady {
		t.Errorf("State() = %v, want ready", h.ctrl.State())
	}
}

func TestErrorWithoutInteractionDoesNotResume(t *testing.T) {
	h := newHarness(3)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.loaded()
	h.ctrl.TogglePlay()
	if h.ctrl.State() != core.StatePlaying {
		t.Fatalf("State() = %v, want playing", h.ctrl.State())
	}

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceFailed, LoadID: h.dev.lastID()})
	h.timer.fire()
	h.loaded()

	if h.ctrl.State() != core.StateReady {
		t.Errorf("State() = %v, want ready", h.ctrl.State())
	}
}

func TestSynchronousLoadFailureIsAnErrorTransition(t *testing.T) {
	h := newHarness(2)
	h.dev.loadErr = errors.New("no such file")

	h.ctrl.LoadTrack(h.sched.tracks[0])

	if h.ctrl.State() != core.StateError {
		t.Fatalf("State() = %v, want error", h.ctrl.State())
	}
	if len(h.timer.pending) != 1 {
		t.Fatalf("pending timers = %d, want 1", len(h.timer.pending))
	}
}

func TestStaleEventsIgnored(t *testing.T) {
	h := newHarness(3)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	staleID := h.dev.lastID()
	h.ctrl.LoadTrack(h.sched.tracks[1])

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceLoaded, LoadID: staleID})
	if h.ctrl.State() != core.StateLoading {
		t.Errorf("stale load completion changed state to %v", h.ctrl.State())
	}

	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceFailed, LoadID: staleID})
	if h.ctrl.State() != core.StateLoading {
		t.Errorf("stale failure changed state to %v", h.ctrl.State())
	}
	if len(h.timer.pending) != 0 {
		t.Error("stale failure scheduled recovery")
	}
}

func TestSupersededRecoveryDoesNothing(t *testing.T) {
	h := newHarness(3)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.ctrl.HandleDeviceEvent(core.DeviceEvent{Type: core.DeviceFailed, LoadID: h.dev.lastID()})

	// The user picks a track before the recovery fires.
	pending := h.timer.pending[0]
	h.ctrl.PlayTrack(h.sched.tracks[2])
	loads := len(h.dev.loads)

	pending.fn()
	if len(h.dev.loads) != loads {
		t.Error("superseded recovery loaded another track")
	}
	if !pending.stopped {
		t.Error("recovery timer not stopped on new load")
	}
}

func TestTogglePlayWhileLoadingSetsIntent(t *testing.T) {
	h := newHarness(1)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.ctrl.TogglePlay()
	h.loaded()
	if h.ctrl.State() != core.StatePlaying {
		t.Errorf("State() = %v, want playing", h.ctrl.State())
	}
}

func TestAdvanceOnEmptySchedulerGoesIdle(t *testing.T) {
	h := newHarness(0)
	h.ctrl.AdvanceToNext()
	if h.ctrl.State() != core.StateIdle {
		t.Errorf("State() = %v, want idle", h.ctrl.State())
	}
	if len(h.dev.loads) != 0 {
		t.Error("device loaded with empty scheduler")
	}
}

func TestProgressEvents(t *testing.T) {
	h := newHarness(1)
	h.ctrl.LoadTrack(h.sched.tracks[0])
	h.ctrl.HandleDeviceEvent(core.DeviceEvent{
		Type:     core.DeviceProgress,
		LoadID:   h.dev.lastID(),
		Elapsed:  65 * time.Second,
		Duration: 200 * time.Second,
	})

	last := h.events[len(h.events)-1]
	if last.Type != EventProgress || last.Elapsed != "1:05" || last.Duration != "3:20" {
		t.Errorf("last event = %+v", last)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	h := newHarness(1)
	h.ctrl.SetVolume(1.7)
	if h.dev.volume != 1 || h.ctrl.Session().Volume != 1 {
		t.Errorf("volume = %v", h.dev.volume)
	}
	h.ctrl.SetVolume(-0.2)
	if h.dev.volume != 0 {
		t.Errorf("volume = %v", h.dev.volume)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59.9, "0:59"},
		{60, "1:00"},
		{605, "10:05"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatDuration(0); got != "0:00" {
		t.Errorf("FormatDuration(0) = %q", got)
	}
}
