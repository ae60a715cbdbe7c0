// Package download runs audio downloads through yt-dlp and aggregates the
// per-track outcomes into job result summaries.
package download

import (
	"context"
	"fmt"

	"github.com/lrstanley/go-ytdlp"
)

// Item is a single media entry seen or fetched by the extractor.
type Item struct {
	Artist string
	Title  string
	URL    string
}

// Listing is the metadata of a playlist-like target without its media.
type Listing struct {
	Title string
	Items []Item
}

// Extractor abstracts the yt-dlp binary so the orchestrator can be tested
// against fakes.
type Extractor interface {
	// List fetches playlist metadata without downloading anything.
	List(ctx context.Context, target string) (*Listing, error)
	// Fetch downloads the target's audio using the given output template
	// and returns the entries that were written.
	Fetch(ctx context.Context, target, outputTmpl string) ([]Item, error)
}

// YTDLP is the real Extractor backed by the yt-dlp binary.
type YTDLP struct {
	audioFormat  string
	audioQuality string
}

// NewYTDLP returns an Extractor producing audio files in the given format
// and quality, e.g. "mp3" at "320K".
func NewYTDLP(audioFormat, audioQuality string) *YTDLP {
	return &YTDLP{
		audioFormat:  audioFormat,
		audioQuality: audioQuality,
	}
}

func (y *YTDLP) List(ctx context.Context, target string) (*Listing, error) {
	cmd := ytdlp.New().
		FlatPlaylist().
		SkipDownload().
		PrintJSON().
		NoWarnings()

	result, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	listing := &Listing{}
	for _, entry := range info {
		if entry.Type == "playlist" {
			if entry.Title != nil && listing.Title == "" {
				listing.Title = *entry.Title
			}
			for _, e := range entry.Entries {
				listing.Items = append(listing.Items, infoToItem(e))
			}
			continue
		}
		listing.Items = append(listing.Items, infoToItem(entry))
	}
	return listing, nil
}

func (y *YTDLP) Fetch(ctx context.Context, target, outputTmpl string) ([]Item, error) {
	cmd := ytdlp.New().
		ExtractAudio().
		AudioFormat(y.audioFormat).
		AudioQuality(y.audioQuality).
		Output(outputTmpl).
		IgnoreErrors().
		NoWarnings().
		PrintJSON()

	result, err := cmd.Run(ctx, target)
	if result == nil {
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	info, infoErr := result.GetExtractedInfo()
	if infoErr != nil {
		if err != nil {
			return nil, fmt.Errorf("yt-dlp failed: %w", err)
		}
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", infoErr)
	}

	var items []Item
	for _, entry := range info {
		if entry.Type == "playlist" {
			for _, e := range entry.Entries {
				items = append(items, infoToItem(e))
			}
			continue
		}
		items = append(items, infoToItem(entry))
	}

	// With IgnoreErrors set, a partial playlist download surfaces err while
	// still producing entries. Fail only when nothing came through.
	if len(items) == 0 && err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}
	return items, nil
}

func infoToItem(info *ytdlp.ExtractedInfo) Item {
	item := Item{}
	if info.Title != nil {
		item.Title = *info.Title
	}
	if info.Artist != nil {
		item.Artist = *info.Artist
	} else if info.Uploader != nil {
		item.Artist = *info.Uploader
	}
	if info.WebpageURL != nil {
		item.URL = *info.WebpageURL
	} else if info.URL != nil {
		item.URL = *info.URL
	}
	return item
}
