package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/tui/styles"
)

// Queue displays the upcoming window of the play order
type Queue struct {
	offset int
}

// NewQueue creates a new Queue component
func NewQueue() *Queue {
	return &Queue{}
}

// ScrollDown scrolls the queue down
func (q *Queue) ScrollDown() {
	q.offset++
}

// ScrollUp scrolls the queue up
func (q *Queue) ScrollUp() {
	if q.offset > 0 {
		q.offset--
	}
}

// Render renders the up next panel
func (q *Queue) Render(order core.PlayOrder, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Up Next (%d)", order.Len()), focused)

	var content string
	upcoming := order.Upcoming()
	if len(upcoming) == 0 {
		content = styles.Muted.Render("Nothing queued; reshuffles at the end")
	} else {
		content = q.renderQueue(upcoming, order.Cursor+2, width-4, height-4)
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

func (q *Queue) renderQueue(tracks []*core.Track, firstNum, width, maxLines int) string {
	if q.offset >= len(tracks) {
		q.offset = 0
	}

	visibleCount := maxLines - 1 // room for the "more" line
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := q.offset
	end := min(start+visibleCount, len(tracks))

	lines := make([]string, 0, end-start+1)

	// "XXX. " (5) + " — " (3)
	const overhead = 8

	for i := start; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%3d.", firstNum+i)
		title, artist := fit(track.Title, track.Artist, width-overhead, 10)
		line := fmt.Sprintf("%s %s — %s",
			styles.Dim.Render(num),
			title,
			styles.Muted.Render(artist))
		lines = append(lines, line)
	}

	if end < len(tracks) {
		more := styles.Dim.Render(fmt.Sprintf("     ... and %d more", len(tracks)-end))
		lines = append(lines, more)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// fit truncates title and artist to share available columns, giving the
// artist at least a third of the space (and never less than minArtist).
func fit(title, artist string, available, minArtist int) (string, string) {
	if len(title)+len(artist) <= available {
		return title, artist
	}

	artistSpace := max(available/3, minArtist)
	if artistSpace > available-minArtist {
		artistSpace = available - minArtist
	}
	if len(artist) < artistSpace {
		artistSpace = len(artist)
	}
	return truncate(title, available-artistSpace), truncate(artist, artistSpace)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
