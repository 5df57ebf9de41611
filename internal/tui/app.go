package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/engine"
	"github.com/tessro/jukebox/internal/prefs"
	"github.com/tessro/jukebox/internal/tui/components"
	"github.com/tessro/jukebox/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelArtists
	PanelHistory

	panelCount = 4
)

const (
	defaultRefresh = 500 * time.Millisecond
	queryTimeout   = 2 * time.Second
	errorTTL       = 5 * time.Second
	libraryRows    = 12
)

// Options configures the TUI.
type Options struct {
	// RefreshInterval is how often the engine snapshot is polled.
	RefreshInterval time.Duration
	// Browse opens the library overlay on start.
	Browse bool
}

// Model is the main TUI model
type Model struct {
	engine       *engine.Engine
	refreshRate  time.Duration
	width        int
	height       int
	focusedPanel Panel

	// State
	snap   engine.Snapshot
	loaded bool
	dark   bool

	// Components
	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	artistsView *components.Artists
	historyView *components.History

	// Overlays
	showHelp bool

	// Library overlay
	showLibrary    bool
	libraryInput   textinput.Model
	libraryResults []*core.Track
	libraryCursor  int

	// Status line
	lastError   error
	errorExpiry time.Time
	notice      string

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(e *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter by title, artist or album..."
	ti.CharLimit = 100
	ti.Width = 50

	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = defaultRefresh
	}

	m := Model{
		engine:       e,
		refreshRate:  refresh,
		focusedPanel: PanelNowPlaying,
		nowPlaying:   components.NewNowPlaying(),
		queueView:    components.NewQueue(),
		artistsView:  components.NewArtists(),
		historyView:  components.NewHistory(),
		libraryInput: ti,
		dark:         true,
	}
	if opts.Browse {
		m.openLibrary()
	}
	return m
}

// Messages
type tickMsg time.Time
type snapshotMsg engine.Snapshot
type errMsg error
type noticeMsg string
type refreshMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshot() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		snap, err := e.Query(ctx)
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg(snap)
	}
}

// dispatch posts fn to the engine loop and asks for a fresh snapshot.
func (m Model) dispatch(fn func(*engine.Engine)) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		if !e.Do(fn) {
			return errMsg(engine.ErrStopped)
		}
		return refreshMsg{}
	}
}

func copyToClipboard(url string) tea.Cmd {
	return func() tea.Msg {
		if url == "" {
			return errMsg(errors.New("no track loaded"))
		}
		if err := clipboard.WriteAll(url); err != nil {
			return errMsg(fmt.Errorf("copy asset URL: %w", err))
		}
		return noticeMsg("Copied " + url)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.fetchSnapshot()}
	if m.showLibrary {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tick(), m.fetchSnapshot())

	case refreshMsg:
		return m, m.fetchSnapshot()

	case snapshotMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
			m.notice = ""
		}
		m.applySnapshot(engine.Snapshot(msg))
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		m.lastError = nil
		m.errorExpiry = time.Now().Add(errorTTL)
		return m, nil

	case errMsg:
		if errors.Is(msg, engine.ErrStopped) {
			m.quitting = true
			return m, tea.Quit
		}
		m.lastError = msg
		m.errorExpiry = time.Now().Add(errorTTL)
		return m, nil
	}

	// Forward other messages to textinput when the library is open
	if m.showLibrary {
		var inputCmd tea.Cmd
		m.libraryInput, inputCmd = m.libraryInput.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m *Model) applySnapshot(snap engine.Snapshot) {
	if !m.loaded || snap.DarkTheme != m.dark {
		styles.Apply(snap.DarkTheme)
		m.dark = snap.DarkTheme
	}
	m.snap = snap
	m.loaded = true

	if !snap.FilterPanelVisible && m.focusedPanel == PanelArtists {
		m.focusedPanel = PanelHistory
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	// Library overlay
	if m.showLibrary {
		return m.handleLibraryKeyPress(msg)
	}

	// Normal mode
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "/":
		m.openLibrary()
		return m, textinput.Blink
	case "tab":
		m.focusedPanel = m.nextPanel(1)
		return m, nil
	case "shift+tab":
		m.focusedPanel = m.nextPanel(-1)
		return m, nil
	}

	// Playback controls
	switch msg.String() {
	case " ":
		return m, m.dispatch((*engine.Engine).TogglePlay)
	case "n":
		return m, m.dispatch((*engine.Engine).Next)
	case "left":
		return m, m.dispatch(func(e *engine.Engine) { e.SeekBy(-engine.SeekStep) })
	case "right":
		return m, m.dispatch(func(e *engine.Engine) { e.SeekBy(engine.SeekStep) })
	case "+", "=":
		return m, m.dispatch(func(e *engine.Engine) { e.AdjustVolume(engine.VolumeStep) })
	case "-":
		return m, m.dispatch(func(e *engine.Engine) { e.AdjustVolume(-engine.VolumeStep) })
	case "t":
		return m, m.dispatch((*engine.Engine).ToggleTheme)
	case "f":
		return m, m.dispatch((*engine.Engine).ToggleFilterPanel)
	case "a":
		return m, m.dispatch((*engine.Engine).SelectAllArtists)
	case "x":
		return m, m.dispatch((*engine.Engine).SelectNoArtists)
	case "y":
		return m, copyToClipboard(m.snap.AssetURL)
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelQueue:
		switch msg.String() {
		case "j", "down":
			m.queueView.ScrollDown()
		case "k", "up":
			m.queueView.ScrollUp()
		}
	case PanelArtists:
		switch msg.String() {
		case "j", "down":
			m.artistsView.SelectNext()
		case "k", "up":
			m.artistsView.SelectPrev()
		case "enter":
			if name, ok := m.artistsView.SelectedName(m.snap.Artists); ok {
				return m, m.dispatch(func(e *engine.Engine) { e.ToggleArtist(name) })
			}
		}
	}

	return m, nil
}

func (m Model) nextPanel(step int) Panel {
	p := m.focusedPanel
	for range panelCount {
		p = Panel((int(p) + step + panelCount) % panelCount)
		if p != PanelArtists || m.snap.FilterPanelVisible {
			return p
		}
	}
	return m.focusedPanel
}

func (m *Model) openLibrary() {
	m.showLibrary = true
	m.libraryInput.SetValue("")
	m.libraryInput.Focus()
	m.libraryCursor = 0
	m.libraryResults = m.engine.Library().All()
}

func (m Model) handleLibraryKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showLibrary = false
		m.libraryInput.Blur()
		return m, nil
	case "enter":
		if m.libraryCursor < len(m.libraryResults) {
			track := m.libraryResults[m.libraryCursor]
			m.showLibrary = false
			m.libraryInput.Blur()
			return m, m.dispatch(func(e *engine.Engine) { e.PlayTrack(track) })
		}
		return m, nil
	case "up", "ctrl+p":
		if m.libraryCursor > 0 {
			m.libraryCursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.libraryCursor < len(m.libraryResults)-1 {
			m.libraryCursor++
		}
		return m, nil
	}

	before := m.libraryInput.Value()
	var inputCmd tea.Cmd
	m.libraryInput, inputCmd = m.libraryInput.Update(msg)

	// The catalog is in memory, so filter on every keystroke
	if v := m.libraryInput.Value(); v != before {
		m.libraryResults = m.engine.Library().Filter(v)
		m.libraryCursor = 0
	}
	return m, inputCmd
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 || !m.loaded {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showLibrary {
		return m.renderLibrary()
	}

	// Left: Now Playing (top), Up Next (bottom)
	// Right: Artists (top, when visible), History
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2

	nowPlaying := m.nowPlaying.Render(m.snap.Session, m.snap.Hint, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	queueView := m.queueView.Render(m.snap.Order, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelQueue)
	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, queueView)

	var rightCol string
	if m.snap.FilterPanelVisible {
		artistsView := m.artistsView.Render(m.snap.Artists, m.snap.Summary, rightWidth-2, topHeight-2, m.focusedPanel == PanelArtists)
		historyView := m.historyView.Render(m.snap.History, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)
		rightCol = lipgloss.JoinVertical(lipgloss.Left, artistsView, historyView)
	} else {
		rightCol = m.historyView.Render(m.snap.History, rightWidth-2, m.height-4, m.focusedPanel == PanelHistory)
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:library  space:play/pause  n:next  ←/→:seek  +/-:volume  f:artists  t:theme")

	switch {
	case m.lastError != nil:
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	case m.notice != "":
		status = styles.Playing.Render(m.notice)
	case m.snap.Variant == prefs.VariantLibrary:
		status = styles.Dim.Render("library mode  ") + status
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Jukebox - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Library
  Tab          Next panel
  Shift+Tab    Previous panel

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  ←/→          Seek -/+ 5%
  +/=          Volume up
  -            Volume down
  y            Copy asset URL

  Artists
  ───────
  f            Show/hide panel
  j/↓  k/↑     Move
  Enter        Enable/disable artist
  a            Select all
  x            Select none
  t            Light/dark theme

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderLibrary() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Library"))
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d tracks", len(m.libraryResults), m.engine.Library().Len())))
	b.WriteString("\n\n")

	b.WriteString(m.libraryInput.View())
	b.WriteString("\n\n")

	if len(m.libraryResults) == 0 {
		b.WriteString(styles.Muted.Render("No matches"))
		b.WriteString("\n")
	} else {
		start := 0
		if m.libraryCursor >= libraryRows {
			start = m.libraryCursor - libraryRows + 1
		}
		end := min(start+libraryRows, len(m.libraryResults))

		current := m.snap.Session.Track
		for i := start; i < end; i++ {
			t := m.libraryResults[i]
			line := t.Title + " " + styles.Muted.Render(t.Artist)
			if t.Album != "" {
				line += styles.Dim.Render(" · " + t.Album)
			}
			if current != nil && t.Filename == current.Filename {
				line = styles.Playing.Render("♪ ") + line
			}
			if i == m.libraryCursor {
				b.WriteString(styles.SelectedRow.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if end < len(m.libraryResults) {
			b.WriteString(styles.Dim.Render(fmt.Sprintf("  ...and %d more", len(m.libraryResults)-end)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓:nav  Enter:play  Esc:close"))

	content := lipgloss.NewStyle().
		Width(70).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the TUI on a running engine and blocks until the user quits.
func Run(e *engine.Engine, opts Options) error {
	p := tea.NewProgram(NewModel(e, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
