package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	jerrors "github.com/tessro/jukebox/internal/errors"
	"github.com/tessro/jukebox/internal/logging"
	"github.com/tessro/jukebox/internal/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change saved preferences",
	Long: `Preferences are saved by the player as you use it: volume, theme, enabled
artists and whether the artist panel is shown. The shuffle and library
players keep separate values; select one with --mode.`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set a preference",
	Long: `Set a preference.

Names:
  volume                 Volume from 0 to 1
  theme.dark             Dark theme (true/false)
  artists.enabled        JSON list or comma-separated artist names
  panel.filter_visible   Show the artist panel (true/false)

Examples:
  jukebox prefs set volume 0.6
  jukebox prefs set artists.enabled "New Order,Joy Division"`,
	Args: cobra.ExactArgs(2),
	RunE: runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every preference of the selected player",
	Args:  cobra.NoArgs,
	RunE:  runPrefsReset,
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	p, store, err := openPreferences(logging.Discard())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res := p.Load()
	if res.HasErrors() {
		return fmt.Errorf("failed to read preferences: %s", res.ErrorSummary())
	}
	s := res.Data

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, map[string]any{
			"variant": p.Variant(),
			"backend": cfg.Prefs.Backend,
			"prefs":   s,
		})
	}

	artists := "all"
	if s.HasEnabledArtists {
		artists = strings.Join(s.EnabledArtists, ", ")
	}

	printf(out, "Variant: %s (%s store)\n\n", p.Variant(), cfg.Prefs.Backend)
	table := NewTableWriter(out, "NAME", "KEY", "VALUE")
	table.Row(prefs.KeyVolume, p.Key(prefs.KeyVolume), strconv.FormatFloat(s.Volume, 'f', -1, 64))
	table.Row(prefs.KeyDarkTheme, p.Key(prefs.KeyDarkTheme), strconv.FormatBool(s.DarkTheme))
	table.Row(prefs.KeyEnabledArtists, p.Key(prefs.KeyEnabledArtists), artists)
	table.Row(prefs.KeyFilterPanelVisible, p.Key(prefs.KeyFilterPanelVisible), strconv.FormatBool(s.FilterPanelVisible))
	table.Flush()
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	name, value := args[0], args[1]

	p, store, err := openPreferences(logging.Discard())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := p.SetRaw(name, value); err != nil {
		if errors.Is(err, jerrors.ErrUnknownPreference) {
			return jerrors.WithSuggestion(err, "Valid names: "+strings.Join(prefs.Names, ", "))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, map[string]string{
			"status": "updated",
			"key":    p.Key(name),
			"value":  value,
		})
	}
	printf(out, "Set %s = %s\n", p.Key(name), value)
	return nil
}

func runPrefsReset(cmd *cobra.Command, args []string) error {
	p, store, err := openPreferences(logging.Discard())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := p.Reset(); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, map[string]string{"status": "reset", "variant": string(p.Variant())})
	}
	printf(out, "Reset %s preferences\n", p.Variant())
	return nil
}
