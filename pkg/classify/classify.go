// Package classify decides what kind of input a submission is before any
// work is scheduled for it. The rules are ordered: URLs first, then the
// explicit "Artist - Title" form, then vibe keywords, then a word-count
// heuristic that separates short search queries from free-form descriptions.
package classify

import (
	"net/url"
	"strings"

	"github.com/tunepull/tunepull/pkg/models"
)

// vibeKeywords mark an input as a mood description even when it is short.
var vibeKeywords = []string{
	"music for",
	"playlist",
	"vibe",
	"mood",
	"feeling",
	"upbeat",
	"chill",
	"relaxing",
	"energetic",
	"party",
	"workout",
	"study",
	"focus",
	"sleep",
	"background",
}

// Detect classifies a single line of input and returns its type along with
// the trimmed value that downstream handlers should operate on.
func Detect(input string) (models.InputType, string) {
	trimmed := strings.TrimSpace(input)

	if t, ok := classifyURL(trimmed); ok {
		return t, trimmed
	}

	// "Artist - Title" with exactly one separator is an explicit track search.
	if parts := strings.Split(trimmed, " - "); len(parts) == 2 &&
		strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != "" {
		return models.InputSearchQuery, trimmed
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range vibeKeywords {
		if strings.Contains(lower, kw) {
			return models.InputVibeDescription, trimmed
		}
	}

	if len(strings.Fields(trimmed)) <= 5 {
		return models.InputSearchQuery, trimmed
	}
	return models.InputVibeDescription, trimmed
}

// classifyURL handles absolute URLs. Spotify gets its own categories since
// tracks and albums there cannot be fetched directly; every other host is
// handed to the downloader as a video or playlist URL.
func classifyURL(input string) (models.InputType, bool) {
	u, err := url.Parse(input)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Host)
	lower := strings.ToLower(input)

	if strings.Contains(host, "spotify.com") {
		switch {
		case strings.Contains(lower, "/playlist/"):
			return models.InputSpotifyPlaylist, true
		case strings.Contains(lower, "/album/"):
			return models.InputSpotifyAlbum, true
		default:
			return models.InputSpotifyTrack, true
		}
	}

	if strings.Contains(lower, "playlist") || strings.Contains(lower, "list=") {
		return models.InputYouTubePlaylist, true
	}
	return models.InputYouTubeVideo, true
}
