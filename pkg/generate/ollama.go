// Package generate turns free-form vibe descriptions into concrete track
// lists using a local Ollama instance.
package generate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/models"
)

const (
	generateTimeout = 120 * time.Second
	pingTimeout     = 5 * time.Second
)

// Generator produces playlists from mood descriptions via an Ollama model.
type Generator struct {
	client *api.Client
	model  string
	log    *logging.Logger
}

// NewGenerator creates a Generator talking to the given Ollama base URL.
func NewGenerator(baseURL, model string, log *logging.Logger) (*Generator, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}
	return &Generator{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
		log:    log,
	}, nil
}

// Ping checks that the Ollama server is reachable. Used before accepting
// vibe jobs so the caller can reject them up front instead of failing later.
func (g *Generator) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := g.client.List(ctx); err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	return nil
}

// Generate asks the model for count tracks matching the vibe description.
// The model is instructed to respond with plain "Artist, Title" lines; the
// response is parsed leniently since models pad output with commentary.
func (g *Generator) Generate(ctx context.Context, vibe string, count int) ([]models.Track, error) {
	prompt := fmt.Sprintf(`Generate a playlist of %d songs matching this vibe: "%s"

Respond with ONLY a list of songs, one per line, in this exact format:
Artist, Song Title

Do not include numbering, headers, explanations, or any other text.`, count, vibe)

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	g.log.Info("Requesting playlist generation", map[string]interface{}{
		"model": g.model,
		"count": count,
	})

	stream := false
	var out strings.Builder
	err := g.client.Generate(ctx, &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate failed: %w", err)
	}

	tracks := parseTracks(out.String(), count)
	if len(tracks) == 0 {
		return nil, fmt.Errorf("model produced no usable tracks")
	}

	g.log.Info("Generated playlist", map[string]interface{}{
		"tracks": len(tracks),
	})
	return tracks, nil
}

// noiseMarkers identify lines of model commentary rather than track data.
var noiseMarkers = []string{
	"artist,title",
	"here",
	"based on",
	"playlist",
	"---",
	"```",
}

// parseTracks extracts "Artist, Title" pairs from raw model output, capping
// the result at max tracks.
func parseTracks(raw string, max int) []models.Track {
	var tracks []models.Track
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		noisy := false
		for _, m := range noiseMarkers {
			if strings.Contains(lower, m) {
				noisy = true
				break
			}
		}
		if noisy {
			continue
		}

		line = strings.TrimLeft(line, "0123456789.- ")

		idx := strings.Index(line, ",")
		if idx <= 0 || idx >= len(line)-1 {
			continue
		}
		artist := strings.TrimSpace(line[:idx])
		title := strings.TrimSpace(line[idx+1:])
		if artist == "" || title == "" {
			continue
		}

		tracks = append(tracks, models.Track{Artist: artist, Title: title})
		if len(tracks) >= max {
			break
		}
	}
	return tracks
}
