// Package playlist parses pasted playlist text of the common
// "Title / Artist / Duration" export shape into track pairs.
package playlist

import (
	"regexp"
	"strings"

	"github.com/tunepull/tunepull/pkg/models"
)

var (
	durationRe  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	numberingRe = regexp.MustCompile(`^\d+\.\s+`)
	dashNoiseRe = regexp.MustCompile(`(?i)\s+-\s+(remaster(ed)?[^-]*|live[^-]*|radio edit)$`)
)

// noiseSuffixes are artifacts that exports append to a title line.
var noiseSuffixes = []string{
	"(official video)",
	"(official audio)",
	"(official music video)",
	"(lyrics)",
	"(lyric video)",
	"(audio)",
	"(visualizer)",
	"[official video]",
	"[official audio]",
	"[audio]",
}

// LooksLikePlaylist reports whether a multi-line input resembles a pasted
// playlist export. The first line of an export starts with a track number.
func LooksLikePlaylist(input string) bool {
	if !strings.Contains(input, "\n") {
		return false
	}
	first := strings.TrimSpace(strings.SplitN(input, "\n", 2)[0])
	limit := 3
	if len(first) < limit {
		limit = len(first)
	}
	for i := 0; i < limit; i++ {
		if first[i] >= '0' && first[i] <= '9' {
			return true
		}
	}
	return false
}

// Parse extracts tracks from pasted playlist text. Lines come in
// title/artist pairs, optionally preceded by a numbering prefix on the
// title and followed by a duration line which is skipped. Blank lines and
// standalone duration lines between entries are ignored.
func Parse(text string) []models.Track {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}

	var tracks []models.Track
	i := 0
	for i < len(lines) {
		line := lines[i]

		if durationRe.MatchString(line) {
			i++
			continue
		}

		title := cleanTitle(line)
		if title == "" {
			i++
			continue
		}

		// Next non-duration line is the artist.
		if i+1 >= len(lines) {
			break
		}
		artist := lines[i+1]
		if durationRe.MatchString(artist) {
			// Orphan title, no artist to pair with.
			i += 2
			continue
		}

		tracks = append(tracks, models.Track{
			Artist: artist,
			Title:  title,
		})
		i += 2

		// Skip the duration line that trails an entry.
		if i < len(lines) && durationRe.MatchString(lines[i]) {
			i++
		}
	}
	return tracks
}

func cleanTitle(line string) string {
	title := numberingRe.ReplaceAllString(line, "")
	title = dashNoiseRe.ReplaceAllString(title, "")
	lower := strings.ToLower(title)
	for _, suffix := range noiseSuffixes {
		if strings.HasSuffix(lower, suffix) {
			title = strings.TrimSpace(title[:len(title)-len(suffix)])
			lower = strings.ToLower(title)
		}
	}
	return strings.TrimSpace(title)
}
