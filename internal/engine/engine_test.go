package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
	"github.com/tessro/jukebox/internal/playback"
	"github.com/tessro/jukebox/internal/prefs"
)

type fakeDevice struct {
	mu     sync.Mutex
	loads  []string
	ids    []string
	volume float64
	events chan core.DeviceEvent
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan core.DeviceEvent, 16)}
}

func (d *fakeDevice) Load(id, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	d.loads = append(d.loads, url)
	return nil
}

func (d *fakeDevice) Play() error                     { return nil }
func (d *fakeDevice) Pause() error                    { return nil }
func (d *fakeDevice) Seek(time.Duration) error        { return nil }
func (d *fakeDevice) Events() <-chan core.DeviceEvent { return d.events }
func (d *fakeDevice) Close() error                    { return nil }

func (d *fakeDevice) SetVolume(v float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
	return nil
}

func (d *fakeDevice) loadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.loads)
}

func (d *fakeDevice) lastID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.ids) == 0 {
		return ""
	}
	return d.ids[len(d.ids)-1]
}

// twoArtists has tracks by "Artist X" and "Artist Y".
func twoArtists() *catalog.Library {
	return catalog.NewLibrary([]core.Track{
		{Filename: "x1.mp3", Title: "X One", Artist: "Artist X"},
		{Filename: "y1.mp3", Title: "Y One", Artist: "Artist Y"},
		{Filename: "x2.mp3", Title: "X Two", Artist: "Artist X"},
		{Filename: "y2.mp3", Title: "Y Two", Artist: "Artist Y"},
	}, 4)
}

func newEngine(t *testing.T, store prefs.Store, opts ...Option) (*Engine, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(1)))}, opts...)
	e, err := New(twoArtists(), dev, store, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, dev
}

func artistsOf(order core.PlayOrder) map[string]int {
	out := make(map[string]int)
	for _, t := range order.Tracks {
		out[t.Artist]++
	}
	return out
}

func TestNewRejectsEmptyLibrary(t *testing.T) {
	_, err := New(catalog.NewLibrary(nil, 0), newFakeDevice(), nil)
	if !errors.Is(err, jerrors.ErrNoTracks) {
		t.Errorf("New() error = %v, want ErrNoTracks", err)
	}
}

func TestStartupDefaults(t *testing.T) {
	e, dev := newEngine(t, prefs.NewMemoryStore())
	snap := e.Snapshot()

	if snap.Order.Len() != 4 {
		t.Errorf("order length = %d, want 4", snap.Order.Len())
	}
	if snap.Summary.Enabled != 2 || snap.Summary.Total != 2 {
		t.Errorf("summary = %v", snap.Summary)
	}
	if snap.DarkTheme || snap.FilterPanelVisible {
		t.Error("theme/panel should default to off")
	}
	if dev.volume != 1 {
		t.Errorf("device volume = %v, want 1", dev.volume)
	}
	if dev.loadCount() != 0 {
		t.Error("New() should not load a track")
	}
}

func TestStartupRestoresPreferences(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set("shuffle.volume", "0.3")
	_ = store.Set("shuffle.theme.dark", "true")
	_ = store.Set("shuffle.artists.enabled", `["Artist Y"]`)
	_ = store.Set("shuffle.panel.filter_visible", "true")

	e, dev := newEngine(t, store)
	snap := e.Snapshot()

	if dev.volume != 0.3 {
		t.Errorf("device volume = %v, want 0.3", dev.volume)
	}
	if !snap.DarkTheme || !snap.FilterPanelVisible {
		t.Errorf("theme/panel not restored: %+v", snap)
	}
	got := artistsOf(snap.Order)
	if got["Artist Y"] != 2 || got["Artist X"] != 0 {
		t.Errorf("order artists = %v, want only Artist Y", got)
	}
}

func TestStartupIgnoresUnknownStoredArtists(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set("shuffle.artists.enabled", `["Gone"]`)

	e, _ := newEngine(t, store)
	snap := e.Snapshot()
	if snap.Order.Len() != 4 {
		t.Error("expected fallback to all artists")
	}
}

func TestVariantNamespacing(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set("shuffle.theme.dark", "true")

	e, _ := newEngine(t, store, WithVariant(prefs.VariantLibrary))
	if e.Snapshot().DarkTheme {
		t.Error("library variant read the shuffle theme")
	}
}

func TestDisableArtistPersistsAndReshuffles(t *testing.T) {
	store := prefs.NewMemoryStore()
	e, dev := newEngine(t, store)
	e.Start()
	playing := e.Snapshot().Session.Track
	gen := e.Snapshot().Order.Generation

	e.SetArtistEnabled("Artist X", false)

	snap := e.Snapshot()
	if got := artistsOf(snap.Order); got["Artist X"] != 0 || got["Artist Y"] != 2 {
		t.Errorf("order artists = %v", got)
	}
	if snap.Order.Generation != gen+1 || snap.Order.Cursor != 0 {
		t.Errorf("order not rebuilt: gen %d cursor %d", snap.Order.Generation, snap.Order.Cursor)
	}
	if v, _, _ := store.Get("shuffle.artists.enabled"); v != `["Artist Y"]` {
		t.Errorf("persisted artists = %q", v)
	}
	if dev.loadCount() != 1 || snap.Session.Track != playing {
		t.Error("filter change interrupted the current track")
	}

	// Disabling the last artist is rejected.
	e.SetArtistEnabled("Artist Y", false)
	if v, _, _ := store.Get("shuffle.artists.enabled"); v != `["Artist Y"]` {
		t.Errorf("persisted artists after rejected disable = %q", v)
	}
}

func TestNextAfterFilterChangeStartsNewOrder(t *testing.T) {
	e, _ := newEngine(t, nil)
	e.Start()
	e.SetArtistEnabled("Artist Y", false)

	snap := e.Snapshot()
	want := snap.Order.Tracks[0]
	if want == snap.Session.Track {
		want = snap.Order.Tracks[1]
	}
	e.Next()
	if got := e.Snapshot().Session.Track; got != want {
		t.Errorf("Next() loaded %v, want %v", got.Title, want.Title)
	}
	if got := e.Snapshot().Session.Track.Artist; got != "Artist X" {
		t.Errorf("Next() loaded %s", got)
	}
}

func TestNextAfterFilterChangeNeverRepeatsCurrent(t *testing.T) {
	collisions := 0
	for seed := int64(1); seed <= 20; seed++ {
		e, _ := newEngine(t, nil, WithRand(rand.New(rand.NewSource(seed))))
		e.Start()
		playing := e.Snapshot().Session.Track
		other := "Artist X"
		if playing.Artist == other {
			other = "Artist Y"
		}
		e.SetArtistEnabled(other, false)

		if head, _ := e.Scheduler().Current(); head == playing {
			collisions++
		}
		e.Next()
		if got := e.Snapshot().Session.Track; got == playing {
			t.Errorf("seed %d: Next() replayed %s", seed, got.Title)
		}
	}
	if collisions == 0 {
		t.Fatal("no seed put the playing track at the head of the new order")
	}
}

func TestNextVisitsEveryTrackThenReshuffles(t *testing.T) {
	e, _ := newEngine(t, nil)
	e.Start()
	seen := map[string]bool{e.Snapshot().Session.Track.Filename: true}
	gen := e.Snapshot().Order.Generation

	for i := 0; i < 3; i++ {
		e.Next()
		seen[e.Snapshot().Session.Track.Filename] = true
	}
	if len(seen) != 4 {
		t.Errorf("visited %d distinct tracks, want 4", len(seen))
	}

	e.Next()
	snap := e.Snapshot()
	if snap.Order.Generation != gen+1 || snap.Order.Cursor != 0 {
		t.Errorf("exhaustion: gen %d cursor %d", snap.Order.Generation, snap.Order.Cursor)
	}
}

func TestSelectAllAndNone(t *testing.T) {
	e, _ := newEngine(t, nil)
	e.SelectNoArtists()
	if s := e.Snapshot().Summary; s.Enabled != 1 {
		t.Errorf("SelectNoArtists summary = %v", s)
	}
	e.SelectAllArtists()
	if s := e.Snapshot().Summary; s.Enabled != 2 {
		t.Errorf("SelectAllArtists summary = %v", s)
	}
	e.ToggleArtist("Artist X")
	for _, a := range e.Snapshot().Artists {
		if a.Name == "Artist X" && a.Enabled {
			t.Error("ToggleArtist did not disable Artist X")
		}
	}
}

func TestPlayTrackKeepsCursor(t *testing.T) {
	e, _ := newEngine(t, nil)
	e.Start()
	cursor := e.Scheduler().Cursor()

	target := e.Library().Filter("Y Two")[0]
	e.PlayTrack(target)

	if e.Snapshot().Session.Track != target {
		t.Error("PlayTrack did not load the selected track")
	}
	if e.Scheduler().Cursor() != cursor {
		t.Error("PlayTrack moved the shuffle cursor")
	}
}

func TestTogglesPersist(t *testing.T) {
	store := prefs.NewMemoryStore()
	e, dev := newEngine(t, store)

	e.ToggleTheme()
	e.ToggleFilterPanel()
	e.AdjustVolume(-0.25)

	all, _ := store.All()
	want := map[string]string{
		"shuffle.theme.dark":           "true",
		"shuffle.panel.filter_visible": "true",
		"shuffle.volume":               "0.75",
	}
	for k, v := range want {
		if all[k] != v {
			t.Errorf("%s = %q, want %q", k, all[k], v)
		}
	}
	if dev.volume != 0.75 {
		t.Errorf("device volume = %v", dev.volume)
	}

	e.SetVolume(4)
	if all, _ := store.All(); all["shuffle.volume"] != "1" {
		t.Errorf("volume not clamped: %q", all["shuffle.volume"])
	}
}

func TestHistoryAndAssetURL(t *testing.T) {
	e, _ := newEngine(t, nil, WithResolver(catalog.NewAssetResolver("https://cdn.example/{filename}")))
	e.Start()
	for i := 0; i < HistorySize+5; i++ {
		e.Next()
	}
	snap := e.Snapshot()
	if len(snap.History) != HistorySize {
		t.Errorf("history = %d, want %d", len(snap.History), HistorySize)
	}
	if snap.History[len(snap.History)-1] != snap.Session.Track {
		t.Error("last history entry is not the current track")
	}
	want := fmt.Sprintf("https://cdn.example/%s", snap.Session.Track.Filename)
	if snap.AssetURL != want {
		t.Errorf("AssetURL = %q, want %q", snap.AssetURL, want)
	}
}

func TestSubscribeReceivesPlaybackEvents(t *testing.T) {
	e, _ := newEngine(t, nil)
	var got []playback.EventType
	e.Subscribe(func(ev playback.Event) { got = append(got, ev.Type) })
	e.Start()

	if len(got) == 0 || got[0] != playback.EventStateChange {
		t.Errorf("events = %v", got)
	}
}

func TestRunRecoversFromAssetError(t *testing.T) {
	e, dev := newEngine(t, nil, WithRecoveryDelay(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	if err := e.Call(ctx, func(e *Engine) { e.Start() }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	dev.events <- core.DeviceEvent{Type: core.DeviceFailed, LoadID: dev.lastID(), Err: errors.New("404")}

	deadline := time.Now().Add(2 * time.Second)
	for dev.loadCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("next track was not loaded after the recovery delay")
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, err := e.Query(ctx)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if snap.Session.State != core.StateLoading {
		t.Errorf("state = %v, want loading", snap.Session.State)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if e.Do(func(*Engine) {}) {
		t.Error("Do() succeeded after Run() returned")
	}
	if err := e.Call(context.Background(), func(*Engine) {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Call() after stop = %v, want ErrStopped", err)
	}
}
