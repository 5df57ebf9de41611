package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/library"
)

var (
	catalogArtist string
	catalogSearch string
	catalogLimit  int
	catalogTop    int
	exportDir     string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the track catalog",
	Long:  `Commands for listing, summarizing and exporting the configured catalog.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracks",
	Long: `List catalog tracks in catalog order.

Examples:
  jukebox catalog list --artist "New Order"
  jukebox catalog list --search ceremony`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE:  runCatalogStats,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the parsed catalog back out",
	Long: `Re-encode the parsed catalog. Malformed lines are dropped and the count
artifact is rewritten to match.

Without --dir the catalog text is printed to stdout.`,
	Args: cobra.NoArgs,
	RunE: runCatalogExport,
}

func init() {
	catalogListCmd.Flags().StringVarP(&catalogArtist, "artist", "a", "", "only tracks by this artist")
	catalogListCmd.Flags().StringVarP(&catalogSearch, "search", "s", "", "filter by title or artist")
	catalogListCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 0, "maximum number of tracks (0 for all)")
	catalogStatsCmd.Flags().IntVar(&catalogTop, "top", 10, "number of artists to show")
	catalogExportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "write count.txt and catalog.txt into this directory")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func loadLibraryForCommand(cmd *cobra.Command) (*catalog.Library, error) {
	logger, logs, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer func() { _ = logs.Close() }()
	return loadLibrary(cmd.Context(), logger)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForCommand(cmd)
	if err != nil {
		return err
	}

	tracks := library.NewView(lib.Tracks).Filter(catalogSearch)
	if catalogArtist != "" {
		var filtered []*core.Track
		for _, t := range tracks {
			if strings.EqualFold(t.Artist, catalogArtist) {
				filtered = append(filtered, t)
			}
		}
		tracks = filtered
	}
	if catalogLimit > 0 && len(tracks) > catalogLimit {
		tracks = tracks[:catalogLimit]
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		if tracks == nil {
			tracks = []*core.Track{}
		}
		return writeJSON(out, tracks)
	}

	if len(tracks) == 0 {
		printf(out, "No tracks match\n")
		return nil
	}

	table := NewTableWriter(out, "#", "TITLE", "ARTIST", "FILE")
	for i, t := range tracks {
		table.Row(strconv.Itoa(i+1), TruncateString(t.Title, 40), TruncateString(t.Artist, 30), t.Filename)
	}
	table.Flush()
	return nil
}

type catalogStats struct {
	Declared int                   `json:"declared"`
	Tracks   int                   `json:"tracks"`
	Skipped  int                   `json:"skipped"`
	Artists  int                   `json:"artists"`
	Covers   int                   `json:"covers"`
	Top      []catalog.ArtistCount `json:"top_artists"`
}

func computeStats(lib *catalog.Library, top int) catalogStats {
	s := catalogStats{
		Declared: lib.Declared,
		Tracks:   lib.Len(),
		Skipped:  lib.Skipped,
		Artists:  lib.Universe.Len(),
	}
	for _, t := range lib.Tracks {
		if t.HasCover() {
			s.Covers++
		}
	}

	entries := lib.Universe.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if top >= 0 && len(entries) > top {
		entries = entries[:top]
	}
	s.Top = entries
	return s
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForCommand(cmd)
	if err != nil {
		return err
	}
	stats := computeStats(lib, catalogTop)

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return writeJSON(out, stats)
	}

	printf(out, "Tracks:   %s", humanize.Comma(int64(stats.Tracks)))
	if stats.Tracks != stats.Declared {
		printf(out, " (of %s declared)", humanize.Comma(int64(stats.Declared)))
	}
	printf(out, "\n")
	if stats.Skipped > 0 {
		printf(out, "Skipped:  %s malformed %s\n", humanize.Comma(int64(stats.Skipped)), plural(stats.Skipped, "line", "lines"))
	}
	printf(out, "Artists:  %s\n", humanize.Comma(int64(stats.Artists)))
	printf(out, "Covers:   %s\n", humanize.Comma(int64(stats.Covers)))

	if len(stats.Top) > 0 {
		printf(out, "\n")
		table := NewTableWriter(out, "ARTIST", "TRACKS", "SHARE")
		for _, a := range stats.Top {
			share := float64(a.Count) / float64(stats.Tracks) * 100
			table.Row(a.Name, humanize.Comma(int64(a.Count)), humanize.FtoaWithDigits(share, 1)+"%")
		}
		table.Flush()
	}
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	lib, err := loadLibraryForCommand(cmd)
	if err != nil {
		return err
	}

	tracks := make([]core.Track, len(lib.Tracks))
	for i, t := range lib.Tracks {
		tracks[i] = *t
	}
	data := catalog.Encode(tracks)

	out := cmd.OutOrStdout()
	if exportDir == "" {
		printf(out, "%s\n", data)
		return nil
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	countPath := filepath.Join(exportDir, "count.txt")
	dataPath := filepath.Join(exportDir, "catalog.txt")
	if err := os.WriteFile(countPath, []byte(strconv.Itoa(len(tracks))+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write count: %w", err)
	}
	if err := os.WriteFile(dataPath, []byte(data+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	if JSONOutput() {
		return writeJSON(out, map[string]any{
			"count_path": countPath,
			"data_path":  dataPath,
			"tracks":     len(tracks),
			"bytes":      len(data) + 1,
		})
	}
	printf(out, "Exported %s tracks (%s) to %s\n",
		humanize.Comma(int64(len(tracks))), humanize.Bytes(uint64(len(data)+1)), exportDir)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
