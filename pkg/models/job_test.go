package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunepull/tunepull/pkg/models"
)

func TestNewJob(t *testing.T) {
	job := models.NewJob(models.InputSearchQuery, "Radiohead - Creep")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, models.InputSearchQuery, job.InputType)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Nil(t, job.CompletedAt)

	other := models.NewJob(models.InputSearchQuery, "same input")
	assert.NotEqual(t, job.ID, other.ID)
}

func TestApplyResultTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		failed    int
		want      models.JobStatus
	}{
		{"all succeeded", 5, 0, models.JobStatusCompleted},
		{"partial success", 3, 2, models.JobStatusCompletedWithErrors},
		{"all failed", 0, 3, models.JobStatusFailed},
		{"nothing happened", 0, 0, models.JobStatusFailed},
		{"single success", 1, 0, models.JobStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := models.NewJob(models.InputVibeDescription, "anything")
			job.ApplyResult(&models.ResultSummary{
				Total:     tt.completed + tt.failed,
				Completed: tt.completed,
				Failed:    tt.failed,
			})
			assert.Equal(t, tt.want, job.Status)
			require.NotNil(t, job.CompletedAt)
		})
	}
}

func TestApplyResultCopiesDetails(t *testing.T) {
	job := models.NewJob(models.InputSpotifyPlaylist, "https://open.spotify.com/playlist/x")
	job.ApplyResult(&models.ResultSummary{
		Total:     4,
		Completed: 3,
		Failed:    1,
		FailedTracks: []models.FailedTrack{
			{Artist: "A", Title: "B", Error: "no results found"},
		},
		OutputDir: "/music/mix",
		Errors:    []string{"one track failed"},
	})

	assert.Equal(t, 4, job.TotalTracks)
	assert.Equal(t, 3, job.CompletedTracks)
	assert.Equal(t, 1, job.FailedTracks)
	assert.Equal(t, "/music/mix", job.OutputDirectory)
	require.Len(t, job.FailedTrackDetails, 1)
	assert.Equal(t, []string{"one track failed"}, job.ErrorMessages)
}

func TestFail(t *testing.T) {
	job := models.NewJob(models.InputSpotifyTrack, "https://open.spotify.com/track/x")
	job.Fail("spotify tracks require credentials")

	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Contains(t, job.ErrorMessages, "spotify tracks require credentials")
}

func TestCloneIsDeep(t *testing.T) {
	job := models.NewJob(models.InputSearchQuery, "x")
	job.ErrorMessages = []string{"err"}
	job.FailedTrackDetails = []models.FailedTrack{{Artist: "A", Title: "B"}}

	clone := job.Clone()
	clone.ErrorMessages[0] = "changed"
	clone.FailedTrackDetails[0].Artist = "Z"
	clone.Status = models.JobStatusFailed

	assert.Equal(t, "err", job.ErrorMessages[0])
	assert.Equal(t, "A", job.FailedTrackDetails[0].Artist)
	assert.Equal(t, models.JobStatusQueued, job.Status)
}
