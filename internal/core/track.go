package core

import (
	"path"
	"strings"
)

// UnknownArtist is used when a catalog record carries no artist.
const UnknownArtist = "Unknown Artist"

// Track represents a playable audio track parsed from the catalog.
// Tracks are immutable once parsed and are referenced by pointer.
type Track struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Cover    string `json:"-"`
}

// HasCover returns true if the track carries an inline cover image.
func (t *Track) HasCover() bool {
	return t != nil && t.Cover != ""
}

// DisplayName returns "Title — Artist".
func (t *Track) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " — " + t.Artist
}

// TitleFromFilename derives a display title from an asset filename.
func TitleFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
