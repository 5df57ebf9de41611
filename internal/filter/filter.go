// Package filter owns the set of enabled artists.
package filter

import (
	"fmt"
	"sort"

	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
)

// Summary reports how many artists are enabled.
type Summary struct {
	Enabled int
	Total   int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d artists", s.Enabled, s.Total)
}

// ChangeFunc is called after every mutation of the enabled set.
type ChangeFunc func(f *Filter, s Summary)

// Filter is the enabled-artist set over an artist universe. While the
// universe is non-empty the set is never empty.
type Filter struct {
	universe  *catalog.Universe
	enabled   map[string]bool
	listeners []ChangeFunc
}

// New creates a filter with every artist enabled.
func New(universe *catalog.Universe) *Filter {
	f := &Filter{
		universe: universe,
		enabled:  make(map[string]bool),
	}
	for _, name := range universe.Names() {
		f.enabled[name] = true
	}
	return f
}

// OnChange registers a mutation listener.
func (f *Filter) OnChange(fn ChangeFunc) {
	f.listeners = append(f.listeners, fn)
}

// IsEnabled reports whether artist is enabled.
func (f *Filter) IsEnabled(artist string) bool {
	return f.enabled[artist]
}

// Enable adds artist to the set. Unknown and already enabled artists are
// ignored.
func (f *Filter) Enable(artist string) {
	if !f.universe.Has(artist) || f.enabled[artist] {
		return
	}
	f.enabled[artist] = true
	f.notify()
}

// Disable removes artist from the set. Disabling the last enabled artist
// re-asserts it instead, and listeners still hear about it.
func (f *Filter) Disable(artist string) {
	if !f.universe.Has(artist) || !f.enabled[artist] {
		return
	}
	delete(f.enabled, artist)
	if len(f.enabled) == 0 {
		f.enabled[artist] = true
	}
	f.notify()
}

// Toggle disables an enabled artist or enables a disabled one.
func (f *Filter) Toggle(artist string) {
	if f.IsEnabled(artist) {
		f.Disable(artist)
		return
	}
	f.Enable(artist)
}

// SelectAll enables every artist.
func (f *Filter) SelectAll() {
	if f.universe.Len() == 0 || f.AllEnabled() {
		return
	}
	for _, name := range f.universe.Names() {
		f.enabled[name] = true
	}
	f.notify()
}

// SelectNone leaves only the lexicographically first artist enabled.
func (f *Filter) SelectNone() {
	first, ok := f.universe.First()
	if !ok || (len(f.enabled) == 1 && f.enabled[first]) {
		return
	}
	f.enabled = map[string]bool{first: true}
	f.notify()
}

// Restore seeds the set from persisted names. Names missing from the
// universe are dropped; if nothing remains every artist is enabled.
// Listeners are notified once.
func (f *Filter) Restore(names []string) {
	if f.universe.Len() == 0 {
		return
	}
	restored := make(map[string]bool, len(names))
	for _, name := range names {
		if f.universe.Has(name) {
			restored[name] = true
		}
	}
	if len(restored) == 0 {
		for _, name := range f.universe.Names() {
			restored[name] = true
		}
	}
	f.enabled = restored
	f.notify()
}

// Enabled returns the enabled artists in sorted order.
func (f *Filter) Enabled() []string {
	out := make([]string, 0, len(f.enabled))
	for name := range f.enabled {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AllEnabled reports whether every artist is enabled.
func (f *Filter) AllEnabled() bool {
	return len(f.enabled) == f.universe.Len()
}

// Summary returns the enabled/total counts.
func (f *Filter) Summary() Summary {
	return Summary{Enabled: len(f.enabled), Total: f.universe.Len()}
}

// Universe returns the artist universe.
func (f *Filter) Universe() *catalog.Universe {
	return f.universe
}

// Candidates returns the tracks whose artist is enabled, in catalog order.
func (f *Filter) Candidates(tracks []*core.Track) []*core.Track {
	pool := make([]*core.Track, 0, len(tracks))
	for _, t := range tracks {
		if f.enabled[t.Artist] {
			pool = append(pool, t)
		}
	}
	return pool
}

func (f *Filter) notify() {
	s := f.Summary()
	for _, fn := range f.listeners {
		fn(f, s)
	}
}
