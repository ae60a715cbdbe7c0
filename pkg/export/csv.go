// Package export writes per-job failure reports.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tunepull/tunepull/pkg/models"
)

// WriteFailedTracks writes the job's failed tracks as a CSV file named
// failed_tracks_<jobID>.csv under dir and returns the file path. Jobs
// without failures produce no file and return an empty path.
func WriteFailedTracks(dir string, job *models.Job) (string, error) {
	if len(job.FailedTrackDetails) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("failed_tracks_%s.csv", job.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"artist", "title", "error"}); err != nil {
		return "", err
	}
	for _, track := range job.FailedTrackDetails {
		if err := w.Write([]string{track.Artist, track.Title, track.Error}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
