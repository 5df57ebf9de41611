package filter

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
)

func newTestFilter(t *testing.T, artists ...string) *Filter {
	t.Helper()
	tracks := make([]core.Track, len(artists))
	for i, a := range artists {
		tracks[i] = core.Track{Filename: a + ".mp3", Title: a, Artist: a}
	}
	return New(catalog.NewUniverse(tracks))
}

func TestNewEnablesAll(t *testing.T) {
	f := newTestFilter(t, "B", "A", "C")
	if got := f.Enabled(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Enabled() = %v", got)
	}
	if !f.AllEnabled() {
		t.Error("AllEnabled() = false")
	}
}

func TestDisableLastReenables(t *testing.T) {
	f := newTestFilter(t, "Artist X", "Artist Y")

	f.Disable("Artist X")
	f.Disable("Artist Y")

	if got := f.Enabled(); !reflect.DeepEqual(got, []string{"Artist Y"}) {
		t.Errorf("Enabled() = %v, want [Artist Y]", got)
	}
}

func TestSelectNonePinsFirst(t *testing.T) {
	f := newTestFilter(t, "Zed", "Mid", "Abe")

	f.SelectNone()

	if got := f.Enabled(); !reflect.DeepEqual(got, []string{"Abe"}) {
		t.Errorf("Enabled() = %v, want [Abe]", got)
	}
}

func TestSelectAll(t *testing.T) {
	f := newTestFilter(t, "A", "B")
	f.SelectNone()
	f.SelectAll()
	if !f.AllEnabled() {
		t.Errorf("AllEnabled() = false after SelectAll, enabled = %v", f.Enabled())
	}
}

func TestToggle(t *testing.T) {
	f := newTestFilter(t, "A", "B")
	f.Toggle("A")
	if f.IsEnabled("A") {
		t.Error("A still enabled after toggle")
	}
	f.Toggle("A")
	if !f.IsEnabled("A") {
		t.Error("A not enabled after second toggle")
	}
}

func TestUnknownArtistIgnored(t *testing.T) {
	f := newTestFilter(t, "A")
	calls := 0
	f.OnChange(func(*Filter, Summary) { calls++ })

	f.Enable("Nobody")
	f.Disable("Nobody")

	if calls != 0 {
		t.Errorf("listener called %d times for unknown artist", calls)
	}
	if f.IsEnabled("Nobody") {
		t.Error("unknown artist enabled")
	}
}

func TestNeverEmpty(t *testing.T) {
	artists := []string{"A", "B", "C", "D", "E"}
	f := newTestFilter(t, artists...)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		a := artists[rng.Intn(len(artists))]
		switch rng.Intn(4) {
		case 0:
			f.Disable(a)
		case 1:
			f.SelectNone()
		case 2:
			f.Toggle(a)
		case 3:
			f.Enable(a)
		}
		if len(f.Enabled()) == 0 {
			t.Fatalf("enabled set empty after step %d", i)
		}
	}
}

func TestOnChangeSummary(t *testing.T) {
	f := newTestFilter(t, "A", "B", "C")
	var got []Summary
	f.OnChange(func(_ *Filter, s Summary) { got = append(got, s) })

	f.Disable("A")
	f.SelectNone()
	f.SelectAll()

	want := []Summary{{2, 3}, {1, 3}, {3, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("summaries = %v, want %v", got, want)
	}
	if s := got[0].String(); s != "2/3 artists" {
		t.Errorf("String() = %q", s)
	}
}

func TestNoChangeNoNotify(t *testing.T) {
	f := newTestFilter(t, "A", "B", "C")
	calls := 0
	f.OnChange(func(*Filter, Summary) { calls++ })

	f.Enable("A")
	f.SelectAll()
	if calls != 0 {
		t.Errorf("listener called %d times with every artist already enabled", calls)
	}

	f.Disable("B")
	f.Disable("B")
	if calls != 1 {
		t.Errorf("listener called %d times, want 1 for a single removal", calls)
	}

	f.SelectNone()
	f.SelectNone()
	f.Enable("A")
	if calls != 2 {
		t.Errorf("listener called %d times, want 2 after repeated SelectNone", calls)
	}

	// The last artist is re-asserted and listeners still hear about it.
	f.Disable("A")
	if calls != 3 || !f.IsEnabled("A") {
		t.Errorf("calls = %d, A enabled = %v", calls, f.IsEnabled("A"))
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"subset", []string{"B"}, []string{"B"}},
		{"drops unknown", []string{"B", "Gone"}, []string{"B"}},
		{"all unknown falls back to all", []string{"Gone"}, []string{"A", "B", "C"}},
		{"empty falls back to all", nil, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFilter(t, "A", "B", "C")
			f.Restore(tt.names)
			if got := f.Enabled(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyUniverse(t *testing.T) {
	f := New(catalog.NewUniverse(nil))
	f.SelectNone()
	f.SelectAll()
	f.Restore([]string{"A"})
	if n := len(f.Enabled()); n != 0 {
		t.Errorf("Enabled() has %d entries, want 0", n)
	}
}

func TestCandidates(t *testing.T) {
	tracks := []*core.Track{
		{Filename: "1", Artist: "A"},
		{Filename: "2", Artist: "B"},
		{Filename: "3", Artist: "A"},
	}
	vals := make([]core.Track, len(tracks))
	for i, tr := range tracks {
		vals[i] = *tr
	}
	f := New(catalog.NewUniverse(vals))
	f.Disable("B")

	pool := f.Candidates(tracks)
	if len(pool) != 2 || pool[0] != tracks[0] || pool[1] != tracks[2] {
		t.Errorf("Candidates() = %v", pool)
	}
}
