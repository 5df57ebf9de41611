package engine

import (
	"context"

	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/filter"
	"github.com/tessro/jukebox/internal/prefs"
)

// ArtistState is one row of the artist filter panel.
type ArtistState struct {
	Name    string `json:"name"`
	Tracks  int    `json:"tracks"`
	Enabled bool   `json:"enabled"`
}

// Snapshot is a copy of everything a UI renders.
type Snapshot struct {
	Variant            prefs.Variant  `json:"variant"`
	Session            core.Session   `json:"session"`
	Order              core.PlayOrder `json:"order"`
	Artists            []ArtistState  `json:"artists"`
	Summary            filter.Summary `json:"summary"`
	History            []*core.Track  `json:"history"`
	DarkTheme          bool           `json:"dark_theme"`
	FilterPanelVisible bool           `json:"filter_panel_visible"`
	Hint               string         `json:"hint,omitempty"`
	AssetURL           string         `json:"asset_url,omitempty"`
}

// Snapshot builds a snapshot. It must run on the loop.
func (e *Engine) Snapshot() Snapshot {
	entries := e.filter.Universe().Entries()
	artists := make([]ArtistState, len(entries))
	for i, a := range entries {
		artists[i] = ArtistState{
			Name:    a.Name,
			Tracks:  a.Count,
			Enabled: e.filter.IsEnabled(a.Name),
		}
	}

	history := make([]*core.Track, len(e.history))
	copy(history, e.history)

	session := e.ctrl.Session()
	return Snapshot{
		Variant:            e.variant,
		Session:            session,
		Order:              e.sched.Snapshot(),
		Artists:            artists,
		Summary:            e.filter.Summary(),
		History:            history,
		DarkTheme:          e.darkTheme,
		FilterPanelVisible: e.panelVisible,
		Hint:               e.hint,
		AssetURL:           e.AssetURL(session.Track),
	}
}

// Query returns a snapshot from outside the loop.
func (e *Engine) Query(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.Call(ctx, func(e *Engine) {
		snap = e.Snapshot()
	})
	return snap, err
}
