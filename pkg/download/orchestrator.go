package download

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/models"
)

var (
	spotifyPlaylistRe = regexp.MustCompile(`spotify\.com/playlist/([a-zA-Z0-9]+)`)
	unsafeNameRe      = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// Orchestrator executes download work for a job and reports the outcome as
// a ResultSummary. It never returns an error: every failure mode is folded
// into the summary so the job always reaches a terminal state.
type Orchestrator struct {
	extractor Extractor
	outputDir string
	log       *logging.Logger
}

// NewOrchestrator creates an Orchestrator writing under outputDir.
func NewOrchestrator(extractor Extractor, outputDir string, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		outputDir: outputDir,
		log:       log,
	}
}

// URL downloads a direct media URL. Spotify playlists cannot be fetched
// directly, so their track list is read first and each track is searched
// individually. All other URLs go straight to the extractor, which handles
// both single videos and playlists.
func (o *Orchestrator) URL(ctx context.Context, rawURL string) *models.ResultSummary {
	if spotifyPlaylistRe.MatchString(rawURL) {
		return o.spotifyPlaylist(ctx, rawURL)
	}

	tmpl := filepath.Join(o.outputDir, "%(artist)s", "%(album)s", "%(artist)s - %(title)s.%(ext)s")
	items, err := o.extractor.Fetch(ctx, rawURL, tmpl)
	if err != nil {
		o.log.Error("URL download failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return failedSummary(o.outputDir, fmt.Sprintf("download failed: %v", err))
	}

	summary := &models.ResultSummary{
		Success:   true,
		Total:     len(items),
		Completed: len(items),
		OutputDir: o.outputDir,
	}
	if len(items) == 0 {
		return failedSummary(o.outputDir, "download produced no files")
	}
	return summary
}

// Search resolves a free-text query to its top result and downloads it.
func (o *Orchestrator) Search(ctx context.Context, query string) *models.ResultSummary {
	target := fmt.Sprintf("ytsearch1:%s official audio", query)
	tmpl := filepath.Join(o.outputDir, "%(artist)s", "%(album)s", "%(artist)s - %(title)s.%(ext)s")

	items, err := o.extractor.Fetch(ctx, target, tmpl)
	if err != nil {
		return failedSummary(o.outputDir, fmt.Sprintf("search download failed: %v", err))
	}
	if len(items) == 0 {
		return failedSummary(o.outputDir, fmt.Sprintf("no results found for %q", query))
	}

	return &models.ResultSummary{
		Success:   true,
		Total:     1,
		Completed: 1,
		OutputDir: o.outputDir,
	}
}

// TrackList downloads each track by search, collecting per-track failures
// instead of aborting. Files land in a directory named after the collection.
func (o *Orchestrator) TrackList(ctx context.Context, name string, tracks []models.Track) *models.ResultSummary {
	dir := filepath.Join(o.outputDir, SanitizeName(name))
	tmpl := filepath.Join(dir, "%(artist)s - %(title)s.%(ext)s")

	summary := &models.ResultSummary{
		Total:     len(tracks),
		OutputDir: dir,
	}

	for _, track := range tracks {
		if track.Artist == "" || track.Title == "" {
			summary.Failed++
			summary.FailedTracks = append(summary.FailedTracks, models.FailedTrack{
				Artist: track.Artist,
				Title:  track.Title,
				Error:  "missing artist or title",
			})
			continue
		}
		if ctx.Err() != nil {
			summary.Failed++
			summary.FailedTracks = append(summary.FailedTracks, models.FailedTrack{
				Artist: track.Artist,
				Title:  track.Title,
				Error:  "cancelled",
			})
			continue
		}

		query := fmt.Sprintf("ytsearch1:%s %s official audio", track.Artist, track.Title)
		items, err := o.extractor.Fetch(ctx, query, tmpl)

		switch {
		case err != nil:
			summary.Failed++
			summary.FailedTracks = append(summary.FailedTracks, models.FailedTrack{
				Artist: track.Artist,
				Title:  track.Title,
				Error:  err.Error(),
			})
			o.log.Warn("Track download failed", map[string]interface{}{
				"artist": track.Artist,
				"title":  track.Title,
				"error":  err.Error(),
			})
		case len(items) == 0:
			summary.Failed++
			summary.FailedTracks = append(summary.FailedTracks, models.FailedTrack{
				Artist: track.Artist,
				Title:  track.Title,
				Error:  "no results found",
			})
		default:
			summary.Completed++
		}
	}

	summary.Success = summary.Completed > 0
	return summary
}

// spotifyPlaylist reads the playlist track list and searches each entry.
func (o *Orchestrator) spotifyPlaylist(ctx context.Context, rawURL string) *models.ResultSummary {
	listing, err := o.extractor.List(ctx, rawURL)
	if err != nil {
		return failedSummary(o.outputDir, fmt.Sprintf("could not read spotify playlist: %v", err))
	}
	if len(listing.Items) == 0 {
		return failedSummary(o.outputDir, "spotify playlist contained no tracks")
	}

	name := listing.Title
	if name == "" {
		m := spotifyPlaylistRe.FindStringSubmatch(rawURL)
		name = "spotify_playlist_" + m[1]
	}

	tracks := make([]models.Track, 0, len(listing.Items))
	for _, item := range listing.Items {
		tracks = append(tracks, models.Track{Artist: item.Artist, Title: item.Title})
	}
	return o.TrackList(ctx, name, tracks)
}

// SanitizeName makes a collection name safe as a directory name.
func SanitizeName(name string) string {
	safe := unsafeNameRe.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	if safe == "" {
		safe = "playlist"
	}
	return safe
}

func failedSummary(outputDir, reason string) *models.ResultSummary {
	return &models.ResultSummary{
		Success:   false,
		OutputDir: outputDir,
		Errors:    []string{reason},
	}
}
