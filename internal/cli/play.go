package cli

import (
	"github.com/spf13/cobra"
	"github.com/tessro/jukebox/internal/prefs"
)

var playHeadless bool

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Shuffle the catalog",
	Long: `Shuffle the enabled artists and play through mpv.

Without flags the interactive dashboard is shown. With --headless no UI is
drawn and playback events are printed one per line until interrupted.

Examples:
  jukebox play                     # Dashboard
  jukebox play --headless          # Print events
  jukebox play --headless --json   # One JSON object per event
  jukebox play --mode library      # Use the library player's preferences`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and search the library",
	Long: `Open the dashboard with the library list in front.

Type to filter by title, artist or album and press Enter to play the
selected track. Preferences are kept separately from the shuffle player.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "no dashboard; print playback events")
	addTailFlags(playCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(browseCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	variant, err := currentVariant()
	if err != nil {
		return err
	}
	if playHeadless {
		return runHeadless(cmd, variant)
	}
	return runTUI(cmd, variant, false)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	variant := prefs.VariantLibrary
	if cmd.Flags().Changed("mode") {
		v, err := currentVariant()
		if err != nil {
			return err
		}
		variant = v
	}
	return runTUI(cmd, variant, true)
}
