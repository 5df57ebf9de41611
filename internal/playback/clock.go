package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/tessro/jukebox/internal/core"
)

// FormatClock formats seconds as m:ss. Unknown, negative and non-finite
// values render as "0:00".
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDuration formats a duration as m:ss.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	return FormatClock(d.Seconds())
}

// DisplayTitle renders the title shown for a track in the given state.
func DisplayTitle(state core.State, track *core.Track) string {
	if track == nil {
		return ""
	}
	icon := "⏸"
	if state == core.StatePlaying {
		icon = "▶"
	}
	return icon + " " + track.DisplayName()
}
