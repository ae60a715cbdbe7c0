package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tunepull/tunepull/pkg/classify"
	"github.com/tunepull/tunepull/pkg/models"
)

func TestDetectURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.InputType
	}{
		{"youtube video", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.InputYouTubeVideo},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", models.InputYouTubeVideo},
		{"youtube playlist path", "https://www.youtube.com/playlist?list=PLabc123", models.InputYouTubePlaylist},
		{"youtube watch with list param", "https://www.youtube.com/watch?v=abc&list=PLxyz", models.InputYouTubePlaylist},
		{"spotify playlist", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", models.InputSpotifyPlaylist},
		{"spotify track", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", models.InputSpotifyTrack},
		{"spotify album", "https://open.spotify.com/album/6akEvsycLGftJxYudPjmqK", models.InputSpotifyAlbum},
		{"spotify other path", "https://open.spotify.com/artist/4tZwfgrHOc3mvqYlEYSvVi", models.InputSpotifyTrack},
		{"unknown host video", "https://music.example.com/watch?v=abc", models.InputYouTubeVideo},
		{"unknown host playlist", "https://music.example.com/playlist/99", models.InputYouTubePlaylist},
		{"soundcloud set", "https://soundcloud.com/artist/sets/playlist-name", models.InputYouTubePlaylist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, value := classify.Detect(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, value)
		})
	}
}

func TestDetectSearchQueries(t *testing.T) {
	tests := []string{
		"Daft Punk - Harder Better Faster Stronger",
		"Radiohead - Creep",
		"bohemian rhapsody",
		"taylor swift anti hero",
	}
	for _, input := range tests {
		got, _ := classify.Detect(input)
		assert.Equal(t, models.InputSearchQuery, got, "input: %s", input)
	}
}

func TestDetectVibeDescriptions(t *testing.T) {
	tests := []string{
		"chill sunday morning",
		"upbeat songs",
		"music for coding late at night",
		"something that sounds like rain on a tin roof in autumn",
		"workout mix",
	}
	for _, input := range tests {
		got, _ := classify.Detect(input)
		assert.Equal(t, models.InputVibeDescription, got, "input: %s", input)
	}
}

func TestDetectDashRules(t *testing.T) {
	// More than one " - " separator falls through to the word-count rules.
	got, _ := classify.Detect("a - b - c")
	assert.Equal(t, models.InputSearchQuery, got)

	// Hyphen without surrounding spaces is not a separator.
	got, _ = classify.Detect("twenty-one pilots ride")
	assert.Equal(t, models.InputSearchQuery, got)
}

func TestDetectTrimsWhitespace(t *testing.T) {
	got, value := classify.Detect("  Radiohead - Creep  ")
	assert.Equal(t, models.InputSearchQuery, got)
	assert.Equal(t, "Radiohead - Creep", value)
}

func TestDetectNonHTTPScheme(t *testing.T) {
	// Non-http schemes are not treated as URLs.
	got, _ := classify.Detect("ftp://host/file")
	assert.Equal(t, models.InputSearchQuery, got)
}
