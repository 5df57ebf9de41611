// Package library provides the browsable, searchable track listing.
package library

import (
	"strings"

	"github.com/tessro/jukebox/internal/core"
)

// View lists the full catalog regardless of the artist filter.
type View struct {
	tracks []*core.Track
}

// NewView creates a view over tracks in catalog order.
func NewView(tracks []*core.Track) *View {
	return &View{tracks: tracks}
}

// Len returns the number of tracks in the catalog.
func (v *View) Len() int {
	return len(v.tracks)
}

// All returns every track in catalog order.
func (v *View) All() []*core.Track {
	out := make([]*core.Track, len(v.tracks))
	copy(out, v.tracks)
	return out
}

// Filter returns tracks whose title, artist or album contains query,
// ignoring case. A blank query matches everything.
func (v *View) Filter(query string) []*core.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return v.All()
	}

	var out []*core.Track
	for _, t := range v.tracks {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t *core.Track, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q) ||
		strings.Contains(strings.ToLower(t.Album), q)
}
