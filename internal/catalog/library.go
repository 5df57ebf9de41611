package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
)

// Library is a parsed catalog.
type Library struct {
	Tracks   []*core.Track
	Declared int
	Skipped  int
	Universe *Universe
}

// NewLibrary builds a library from parsed tracks.
func NewLibrary(tracks []core.Track, declared int) *Library {
	lib := &Library{
		Tracks:   make([]*core.Track, len(tracks)),
		Declared: declared,
		Universe: NewUniverse(tracks),
	}
	for i := range tracks {
		lib.Tracks[i] = &tracks[i]
	}
	return lib
}

// Len returns the number of tracks.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Tracks)
}

// ParseCount parses the count artifact.
func ParseCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("invalid track count %q: %w", strings.TrimSpace(text), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid track count %d", n)
	}
	return n, nil
}

// Load fetches and parses the catalog. A zero count yields ErrCatalogEmpty
// without fetching the data artifact; a catalog in which no line parses
// yields ErrNoTracks.
func Load(ctx context.Context, src Source) (*Library, error) {
	countText, err := src.FetchCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jerrors.ErrCatalogUnavailable, err)
	}
	count, err := ParseCount(countText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jerrors.ErrCatalogUnavailable, err)
	}
	if count == 0 {
		return nil, jerrors.ErrCatalogEmpty
	}

	data, err := src.FetchData(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jerrors.ErrCatalogUnavailable, err)
	}

	return LoadText(data, count)
}

// LoadText parses already-fetched catalog text.
func LoadText(data string, count int) (*Library, error) {
	if count == 0 {
		return nil, jerrors.ErrCatalogEmpty
	}
	tracks, skipped := parse(data, count)
	if len(tracks) == 0 {
		return nil, jerrors.ErrNoTracks
	}
	lib := NewLibrary(tracks, count)
	lib.Skipped = skipped
	return lib, nil
}
