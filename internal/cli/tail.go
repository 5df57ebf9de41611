package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tessro/jukebox/internal/playback"
	"github.com/tessro/jukebox/internal/prefs"
	"github.com/tessro/jukebox/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailProgress  bool
	tailTitles    bool
)

func addTailFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	cmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	cmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	cmd.Flags().BoolVar(&tailProgress, "progress", false, "print progress ticks")
	cmd.Flags().BoolVar(&tailTitles, "titles", false, "print display title changes")
}

// newFormatter builds the event formatter from config and flags. Emoji are
// only printed to a terminal.
func newFormatter(out io.Writer, cmd *cobra.Command) *tail.Formatter {
	emoji := cfg.Tail.Emoji && !tailNoEmoji && isTerminal(out)
	timestamp := cfg.Tail.Timestamp
	if cmd.Flags().Changed("timestamp") {
		timestamp = tailTimestamp
	}
	template := cfg.Tail.Template
	if tailFormat != "" {
		template = tailFormat
	}
	return tail.NewFormatter(
		tail.WithEmoji(emoji),
		tail.WithTimestamp(timestamp),
		tail.WithJSON(JSONOutput()),
		tail.WithTemplate(template),
	)
}

// runHeadless plays without a UI and prints events until interrupted.
// Launching the command counts as the user's first gesture.
func runHeadless(cmd *cobra.Command, variant prefs.Variant) error {
	out := cmd.OutOrStdout()
	formatter := newFormatter(out, cmd)
	watcher := tail.NewWatcher(
		tail.WithProgress(tailProgress),
		tail.WithTitles(tailTitles),
	)

	s, err := startSession(cmd.Context(), sessionOptions{
		variant:    variant,
		logOutput:  os.Stderr,
		listeners:  []playback.Listener{watcher.Observe},
		interacted: true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	err = watcher.Follow(cmd.Context(), func(e tail.Event) {
		_, _ = fmt.Fprintln(out, formatter.Format(e))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
