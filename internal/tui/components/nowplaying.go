package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/playback"
	"github.com/tessro/jukebox/internal/tui/styles"
)

// NowPlaying displays the currently loaded track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(session core.Session, hint string, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !session.HasTrack() {
		content = styles.Muted.Render("Nothing loaded")
	} else {
		content = n.renderTrack(session, width-4)
	}

	if hint != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", styles.Paused.Render(hint))
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

func (n *NowPlaying) renderTrack(session core.Session, width int) string {
	track := session.Track

	icon := styles.StatusIcon(session.IsPlaying())
	titleStyle := styles.Title.Width(max(width-4, 1))
	title := titleStyle.Render(track.Title)

	artist := styles.Subtitle.Render(track.Artist)
	album := styles.Dim.Render(track.Album)

	progressWidth := width - 14 // times on either side
	if progressWidth < 10 {
		progressWidth = 10
	}
	bar := styles.ProgressBar(session.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		playback.FormatDuration(session.Elapsed),
		bar,
		playback.FormatDuration(session.Duration))

	status := styles.Muted.Render(fmt.Sprintf("%s  🔊 %d%%", stateLabel(session.State), volumePercent(session.Volume)))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
		"",
		status,
	)
}

func stateLabel(s core.State) string {
	switch s {
	case core.StateLoading:
		return "Loading…"
	case core.StateError:
		return styles.ErrorText.Render("Error, skipping soon")
	case core.StateReady:
		return "Ready"
	case core.StatePlaying:
		return "Playing"
	case core.StatePaused:
		return "Paused"
	case core.StateEnded:
		return "Ended"
	default:
		return "Idle"
	}
}

func volumePercent(v float64) int {
	return int(v*100 + 0.5)
}
