package catalog

import (
	"sort"

	"github.com/tessro/jukebox/internal/core"
)

// ArtistCount pairs an artist with its number of tracks.
type ArtistCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Universe maps artist names to track counts, kept in sorted order.
type Universe struct {
	names  []string
	counts map[string]int
}

// NewUniverse derives the artist universe from a track list.
func NewUniverse(tracks []core.Track) *Universe {
	u := &Universe{counts: make(map[string]int)}
	for _, t := range tracks {
		if _, ok := u.counts[t.Artist]; !ok {
			u.names = append(u.names, t.Artist)
		}
		u.counts[t.Artist]++
	}
	sort.Strings(u.names)
	return u
}

// Names returns artist names in lexicographic order.
func (u *Universe) Names() []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.names))
	copy(out, u.names)
	return out
}

// Count returns the number of tracks by artist.
func (u *Universe) Count(artist string) int {
	if u == nil {
		return 0
	}
	return u.counts[artist]
}

// Has returns true if the artist appears in the catalog.
func (u *Universe) Has(artist string) bool {
	if u == nil {
		return false
	}
	_, ok := u.counts[artist]
	return ok
}

// First returns the lexicographically first artist.
func (u *Universe) First() (string, bool) {
	if u == nil || len(u.names) == 0 {
		return "", false
	}
	return u.names[0], true
}

// Len returns the number of distinct artists.
func (u *Universe) Len() int {
	if u == nil {
		return 0
	}
	return len(u.names)
}

// Entries returns artist counts in sorted order.
func (u *Universe) Entries() []ArtistCount {
	if u == nil {
		return nil
	}
	out := make([]ArtistCount, len(u.names))
	for i, n := range u.names {
		out[i] = ArtistCount{Name: n, Count: u.counts[n]}
	}
	return out
}
