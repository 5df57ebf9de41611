package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/jukebox/internal/prefs"
	"github.com/tessro/jukebox/internal/tui"
)

var tuiRefresh int

func init() {
	playCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "dashboard refresh interval in milliseconds (default from config)")
	browseCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "dashboard refresh interval in milliseconds (default from config)")
}

// runTUI runs the dashboard. The TUI owns the terminal, so logs go to the
// configured log file only.
func runTUI(cmd *cobra.Command, variant prefs.Variant, browse bool) error {
	s, err := startSession(cmd.Context(), sessionOptions{variant: variant})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	refresh := cfg.TUI.RefreshInterval
	if tuiRefresh > 0 {
		refresh = tuiRefresh
	}

	return tui.Run(s.engine, tui.Options{
		RefreshInterval: time.Duration(refresh) * time.Millisecond,
		Browse:          browse,
	})
}
