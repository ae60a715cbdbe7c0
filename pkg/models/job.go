package models

import (
	"time"

	"github.com/google/uuid"
)

// InputType categorizes a user-submitted source.
type InputType string

const (
	InputYouTubeVideo    InputType = "youtube_video"
	InputYouTubePlaylist InputType = "youtube_playlist"
	InputSpotifyTrack    InputType = "spotify_track"
	InputSpotifyPlaylist InputType = "spotify_playlist"
	InputSpotifyAlbum    InputType = "spotify_album"
	InputSearchQuery     InputType = "search_query"
	InputVibeDescription InputType = "vibe_description"
	InputPastedPlaylist  InputType = "pasted_playlist"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusQueued              JobStatus = "queued"
	JobStatusGenerating          JobStatus = "generating"
	JobStatusDownloading         JobStatus = "downloading"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
)

// Track is an (artist, title) pair identifying a song to locate and
// download. Tracks are ephemeral values produced by the playlist parser
// or the vibe generator and consumed by the download orchestrator.
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// FailedTrack records one track that could not be downloaded.
type FailedTrack struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// ResultSummary is the aggregate outcome of one download operation.
// It is used exactly once, to update a Job, and then discarded.
type ResultSummary struct {
	Success      bool          `json:"success"`
	Total        int           `json:"total"`
	Completed    int           `json:"completed"`
	Failed       int           `json:"failed"`
	FailedTracks []FailedTrack `json:"failed_tracks,omitempty"`
	OutputDir    string        `json:"output_dir,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// Job represents one user-submitted request, tracked from creation to
// terminal outcome. Counters are not capped: completed+failed <= total
// is the expected relationship but is not enforced.
type Job struct {
	ID                 string        `json:"job_id"`
	InputType          InputType     `json:"input_type"`
	InputValue         string        `json:"input_value"`
	Status             JobStatus     `json:"status"`
	TotalTracks        int           `json:"total_tracks"`
	CompletedTracks    int           `json:"completed_tracks"`
	FailedTracks       int           `json:"failed_tracks"`
	ErrorMessages      []string      `json:"error_messages"`
	FailedTrackDetails []FailedTrack `json:"failed_track_details"`
	OutputDirectory    string        `json:"output_directory,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
}

// JobRequest is the submit-endpoint payload.
type JobRequest struct {
	Input        string `json:"input"`
	PlaylistName string `json:"playlist_name,omitempty"`
	NumTracks    int    `json:"num_tracks,omitempty"`
}

// NewJob creates a job in the queued state with a fresh identifier.
func NewJob(inputType InputType, inputValue string) *Job {
	return &Job{
		ID:                 uuid.New().String(),
		InputType:          inputType,
		InputValue:         inputValue,
		Status:             JobStatusQueued,
		ErrorMessages:      []string{},
		FailedTrackDetails: []FailedTrack{},
		CreatedAt:          time.Now(),
	}
}

// Clone returns a deep copy of the job. The store hands out clones so
// that background tasks and request handlers never share slices.
func (j *Job) Clone() *Job {
	c := *j
	c.ErrorMessages = append([]string(nil), j.ErrorMessages...)
	c.FailedTrackDetails = append([]FailedTrack(nil), j.FailedTrackDetails...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// ApplyResult folds a download result into the job and decides the
// terminal state. The rule keys on the completed count: zero completed
// items is a failure even when the failed count is also zero (for
// example an unsupported input category).
func (j *Job) ApplyResult(res *ResultSummary) {
	j.TotalTracks = res.Total
	j.CompletedTracks = res.Completed
	j.FailedTracks = res.Failed
	j.FailedTrackDetails = append(j.FailedTrackDetails, res.FailedTracks...)
	j.ErrorMessages = append(j.ErrorMessages, res.Errors...)
	if res.OutputDir != "" {
		j.OutputDirectory = res.OutputDir
	}

	switch {
	case j.CompletedTracks > 0 && j.FailedTracks == 0:
		j.Status = JobStatusCompleted
	case j.CompletedTracks > 0:
		j.Status = JobStatusCompletedWithErrors
	default:
		j.Status = JobStatusFailed
	}

	now := time.Now()
	j.CompletedAt = &now
}

// Fail forces the job into the terminal failed state, appending the
// given reason to its error list. Used by the background task boundary
// so that no job is ever left in a non-terminal state.
func (j *Job) Fail(reason string) {
	j.Status = JobStatusFailed
	j.ErrorMessages = append(j.ErrorMessages, reason)
	now := time.Now()
	j.CompletedAt = &now
}
