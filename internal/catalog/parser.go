package catalog

import (
	"strings"

	"github.com/tessro/jukebox/internal/core"
)

const (
	// EqualToken replaces literal '=' inside field values.
	EqualToken = "_EQUAL_"

	fieldSep  = "="
	noneCover = "none"
)

// Escape replaces '=' with the private escape token.
func Escape(s string) string {
	return strings.ReplaceAll(s, fieldSep, EqualToken)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return strings.ReplaceAll(s, EqualToken, fieldSep)
}

// Parse turns raw catalog text into tracks. At most count records are
// returned; a negative count means no limit. Malformed lines are skipped.
func Parse(text string, count int) []core.Track {
	tracks, _ := parse(text, count)
	return tracks
}

// parse returns the accepted tracks and the number of skipped lines.
func parse(text string, count int) ([]core.Track, int) {
	var tracks []core.Track
	skipped := 0
	if count == 0 {
		return tracks, 0
	}

	for _, line := range strings.Split(text, "\n") {
		if count > 0 && len(tracks) >= count {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		track, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, skipped
}

// ParseLine parses a single "(filename=title=artist=cover)" record.
func ParseLine(line string) (core.Track, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
		return core.Track{}, false
	}

	fields := strings.Split(line[1:len(line)-1], fieldSep)
	if len(fields) < 3 {
		return core.Track{}, false
	}

	filename := strings.TrimSpace(Unescape(fields[0]))
	if filename == "" {
		return core.Track{}, false
	}

	track := core.Track{
		Filename: filename,
		Title:    strings.TrimSpace(Unescape(fields[1])),
		Artist:   strings.TrimSpace(Unescape(fields[2])),
	}
	if track.Title == "" {
		track.Title = core.TitleFromFilename(filename)
	}
	if track.Artist == "" {
		track.Artist = core.UnknownArtist
	}

	// Cover payloads may legitimately contain '=' (base64 padding).
	if len(fields) > 3 {
		cover := strings.Join(fields[3:], fieldSep)
		if cover != noneCover {
			track.Cover = cover
		}
	}

	return track, true
}

// EncodeLine renders a track in catalog format.
func EncodeLine(t core.Track) string {
	cover := t.Cover
	if cover == "" {
		cover = noneCover
	}
	return "(" + Escape(t.Filename) + fieldSep + Escape(t.Title) + fieldSep + Escape(t.Artist) + fieldSep + cover + ")"
}

// Encode renders tracks as catalog text, one record per line.
func Encode(tracks []core.Track) string {
	var sb strings.Builder
	for i, t := range tracks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(EncodeLine(t))
	}
	return sb.String()
}
