package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is a set of theme colors.
type Palette struct {
	Primary   lipgloss.Color
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color
	Selected  lipgloss.Color
}

var (
	// Dark is the default palette.
	Dark = Palette{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Accent:    lipgloss.Color("#F59E0B"), // Amber
		Success:   lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"),
		Error:     lipgloss.Color("#EF4444"),
		Border:    lipgloss.Color("#4B5563"),
		Text:      lipgloss.Color("#F9FAFB"),
		TextMuted: lipgloss.Color("#9CA3AF"),
		TextDim:   lipgloss.Color("#6B7280"),
		Selected:  lipgloss.Color("#374151"),
	}

	// Light is used when the dark theme preference is off.
	Light = Palette{
		Primary:   lipgloss.Color("#6D28D9"),
		Accent:    lipgloss.Color("#B45309"),
		Success:   lipgloss.Color("#047857"),
		Warning:   lipgloss.Color("#B45309"),
		Error:     lipgloss.Color("#B91C1C"),
		Border:    lipgloss.Color("#D1D5DB"),
		Text:      lipgloss.Color("#111827"),
		TextMuted: lipgloss.Color("#4B5563"),
		TextDim:   lipgloss.Color("#9CA3AF"),
		Selected:  lipgloss.Color("#E5E7EB"),
	}
)

// Current is the active palette.
var Current = Dark

// Text styles, rebuilt by Apply.
var (
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Label         lipgloss.Style
	Highlight     lipgloss.Style
	Muted         lipgloss.Style
	Dim           lipgloss.Style
	Playing       lipgloss.Style
	Paused        lipgloss.Style
	ErrorText     lipgloss.Style
	SelectedRow   lipgloss.Style
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	Apply(true)
}

// Apply switches every style to the dark or light palette.
func Apply(dark bool) {
	Current = Light
	if dark {
		Current = Dark
	}
	p := Current

	Title = lipgloss.NewStyle().Bold(true).Foreground(p.Text)
	Subtitle = lipgloss.NewStyle().Foreground(p.TextMuted)
	Label = lipgloss.NewStyle().Foreground(p.TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	Muted = lipgloss.NewStyle().Foreground(p.TextMuted)
	Dim = lipgloss.NewStyle().Foreground(p.TextDim)
	Playing = lipgloss.NewStyle().Foreground(p.Success)
	Paused = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorText = lipgloss.NewStyle().Foreground(p.Error)
	SelectedRow = lipgloss.NewStyle().Background(p.Selected)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary)
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Current.Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Current.Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// Check returns the checkbox glyph for an artist row.
func Check(enabled bool) string {
	if enabled {
		return Playing.Render("[x]")
	}
	return Dim.Render("[ ]")
}
