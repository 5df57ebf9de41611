package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/tui/styles"
)

// History displays recently loaded tracks, newest first
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel. entries are oldest first.
func (h *History) Render(entries []*core.Track, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4)
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

func (h *History) renderHistory(entries []*core.Track, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	// icon (2) + " — " (3)
	const overhead = 5

	for i := len(entries) - 1; i >= 0 && len(lines) < maxLines; i-- {
		track := entries[i]
		if track == nil {
			continue
		}

		icon := "✓"
		if i == len(entries)-1 {
			icon = "♪"
		}

		title, artist := fit(track.Title, track.Artist, width-overhead, 8)
		line := fmt.Sprintf("%s %s — %s",
			styles.Dim.Render(icon),
			title,
			styles.Muted.Render(artist))
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
