package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/jukebox/internal/engine"
	"github.com/tessro/jukebox/internal/filter"
	"github.com/tessro/jukebox/internal/tui/styles"
)

// Artists displays the artist filter with a selection cursor
type Artists struct {
	selected int
	offset   int
}

// NewArtists creates a new Artists component
func NewArtists() *Artists {
	return &Artists{}
}

// SelectNext selects the next artist
func (a *Artists) SelectNext() {
	a.selected++
}

// SelectPrev selects the previous artist
func (a *Artists) SelectPrev() {
	if a.selected > 0 {
		a.selected--
	}
}

// Selected returns the selected artist index
func (a *Artists) Selected() int {
	return a.selected
}

// SelectedName returns the name under the cursor, clamping the cursor first.
func (a *Artists) SelectedName(artists []engine.ArtistState) (string, bool) {
	a.clamp(len(artists))
	if len(artists) == 0 {
		return "", false
	}
	return artists[a.selected].Name, true
}

// Render renders the artists panel
func (a *Artists) Render(artists []engine.ArtistState, summary filter.Summary, width, height int, focused bool) string {
	title := styles.PanelTitle("Artists "+summary.String(), focused)

	var content string
	if len(artists) == 0 {
		content = styles.Muted.Render("No artists")
	} else {
		content = a.renderArtists(artists, width-4, height-4, focused)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (a *Artists) clamp(n int) {
	if a.selected >= n {
		a.selected = n - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a *Artists) renderArtists(artists []engine.ArtistState, width, maxLines int, focused bool) string {
	a.clamp(len(artists))
	if maxLines < 1 {
		maxLines = 1
	}

	// Keep the cursor visible
	if a.selected < a.offset {
		a.offset = a.selected
	}
	if a.selected >= a.offset+maxLines {
		a.offset = a.selected - maxLines + 1
	}

	end := min(a.offset+maxLines, len(artists))
	lines := make([]string, 0, end-a.offset)

	for i := a.offset; i < end; i++ {
		artist := artists[i]

		selector := "  "
		if focused && i == a.selected {
			selector = "▸ "
		}

		count := fmt.Sprintf(" (%d)", artist.Tracks)
		name := truncate(artist.Name, width-len(selector)-4-len(count))
		if focused && i == a.selected {
			name = styles.Highlight.Render(name)
		} else if !artist.Enabled {
			name = styles.Dim.Render(name)
		}

		line := fmt.Sprintf("%s%s %s%s", selector, styles.Check(artist.Enabled), name, styles.Dim.Render(count))
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
