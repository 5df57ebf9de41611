package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/engine"
	"github.com/tessro/jukebox/internal/filter"
	"github.com/tessro/jukebox/internal/logging"
	"github.com/tessro/jukebox/internal/prefs"
)

var selectArtists []string

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "Show or change which artists are shuffled",
}

var artistsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artists and whether they are enabled",
	Args:  cobra.NoArgs,
	RunE:  runArtistsList,
}

var artistsSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose the enabled artists",
	Long: `Choose which artists the shuffle draws from.

Without --artist an interactive picker is shown. At least one artist must
stay enabled.

Examples:
  jukebox artists select
  jukebox artists select --artist "New Order" --artist "Joy Division"`,
	Args: cobra.NoArgs,
	RunE: runArtistsSelect,
}

func init() {
	artistsSelectCmd.Flags().StringArrayVarP(&selectArtists, "artist", "a", nil, "enable this artist (repeatable)")
	artistsCmd.AddCommand(artistsListCmd)
	artistsCmd.AddCommand(artistsSelectCmd)
	rootCmd.AddCommand(artistsCmd)
}

// openPreferences opens the configured store and returns the typed view for
// the selected variant. The caller closes the store.
func openPreferences(logger *slog.Logger) (*prefs.Preferences, prefs.Store, error) {
	variant, err := currentVariant()
	if err != nil {
		return nil, nil, err
	}
	store, err := openPrefs()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return prefs.New(store, variant, logger), store, nil
}

// artistStates applies the stored artist selection to the catalog the way
// the player does at startup.
func artistStates(lib *catalog.Library, p *prefs.Preferences) []engine.ArtistState {
	f := filter.New(lib.Universe)
	if s := p.Load().Data; s.HasEnabledArtists {
		f.Restore(s.EnabledArtists)
	}

	entries := lib.Universe.Entries()
	out := make([]engine.ArtistState, len(entries))
	for i, a := range entries {
		out[i] = engine.ArtistState{Name: a.Name, Tracks: a.Count, Enabled: f.IsEnabled(a.Name)}
	}
	return out
}

func runArtistsList(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForCommand(cmd)
	if err != nil {
		return err
	}
	p, store, err := openPreferences(logging.Discard())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	states := artistStates(lib, p)
	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, states)
	}

	table := NewTableWriter(out, "", "ARTIST", "TRACKS")
	enabled := 0
	for _, a := range states {
		if a.Enabled {
			enabled++
		}
		table.Row(StatusIcon(a.Enabled), a.Name, strconv.Itoa(a.Tracks))
	}
	table.Flush()
	printf(out, "\n%s\n", filter.Summary{Enabled: enabled, Total: len(states)})
	return nil
}

func runArtistsSelect(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForCommand(cmd)
	if err != nil {
		return err
	}
	p, store, err := openPreferences(logging.Discard())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	states := artistStates(lib, p)

	var selected []string
	if len(selectArtists) > 0 {
		for _, name := range selectArtists {
			if !lib.Universe.Has(name) {
				return fmt.Errorf("unknown artist %q", name)
			}
		}
		selected = selectArtists
	} else {
		if !isTerminal(os.Stdin) {
			return errors.New("no terminal for the picker; pass --artist instead")
		}
		selected, err = pickArtists(states)
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(selected)
	if err != nil {
		return err
	}
	if err := p.SetRaw(prefs.KeyEnabledArtists, string(data)); err != nil {
		return fmt.Errorf("failed to save artists: %w", err)
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, map[string]any{
			"variant": p.Variant(),
			"enabled": selected,
		})
	}
	printf(out, "Enabled %d of %d artists\n", len(selected), len(states))
	return nil
}

func pickArtists(states []engine.ArtistState) ([]string, error) {
	options := make([]huh.Option[string], 0, len(states))
	var selected []string
	for _, a := range states {
		label := fmt.Sprintf("%s (%d)", a.Name, a.Tracks)
		options = append(options, huh.NewOption(label, a.Name).Selected(a.Enabled))
		if a.Enabled {
			selected = append(selected, a.Name)
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Artists to shuffle").
				Description("Space toggles, Enter confirms").
				Options(options...).
				Filterable(true).
				Validate(func(names []string) error {
					if len(names) == 0 {
						return errors.New("select at least one artist")
					}
					return nil
				}).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}
