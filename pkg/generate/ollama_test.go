package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunepull/tunepull/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.ERROR, false)
}

func newTestGenerator(t *testing.T, baseURL string) *Generator {
	t.Helper()
	g, err := NewGenerator(baseURL, "llama3", testLogger())
	require.NoError(t, err)
	return g
}

func generateResponse(w http.ResponseWriter, text string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"model":    "llama3",
		"response": text,
		"done":     true,
	})
}

func TestGenerateParsesModelOutput(t *testing.T) {
	raw := `Here is your playlist based on that vibe:

1. Daft Punk, Harder Better Faster Stronger
2. Justice, D.A.N.C.E.
- Moderat, A New Error
Boards of Canada, Roygbiv

Enjoy the playlist!`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "late night coding")

		generateResponse(w, raw)
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)
	tracks, err := g.Generate(context.Background(), "late night coding", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 4)
	assert.Equal(t, "Daft Punk", tracks[0].Artist)
	assert.Equal(t, "Harder Better Faster Stronger", tracks[0].Title)
	assert.Equal(t, "Boards of Canada", tracks[3].Artist)
}

func TestGenerateCapsAtRequestedCount(t *testing.T) {
	raw := "A, One\nB, Two\nC, Three\nD, Four"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		generateResponse(w, raw)
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)
	tracks, err := g.Generate(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestGenerateNoUsableTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		generateResponse(w, "Sorry, I cannot help with that.")
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)
	_, err := g.Generate(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model failed to load"})
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)
	_, err := g.Generate(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"models": []interface{}{}})
	}))
	defer server.Close()

	g := newTestGenerator(t, server.URL)
	assert.NoError(t, g.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	g := newTestGenerator(t, "http://127.0.0.1:1")
	assert.Error(t, g.Ping(context.Background()))
}

func TestParseTracksSkipsNoise(t *testing.T) {
	raw := `artist,title
---
Here are the songs:
Nirvana, Smells Like Teen Spirit
` + "```" + `
Pixies, Debaser`

	tracks := parseTracks(raw, 10)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Nirvana", tracks[0].Artist)
	assert.Equal(t, "Debaser", tracks[1].Title)
}

func TestParseTracksTitleWithCommas(t *testing.T) {
	// Only the first comma splits; the rest stay in the title.
	tracks := parseTracks("Earth, Wind & Fire, September", 10)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Earth", tracks[0].Artist)
	assert.Equal(t, "Wind & Fire, September", tracks[0].Title)
}
