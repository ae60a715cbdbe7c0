// Package worker executes jobs in the background after the API accepts
// them. Every code path, including panics, leaves the job in a terminal
// state so that clients polling for status never wait forever.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/tunepull/tunepull/pkg/export"
	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/metrics"
	"github.com/tunepull/tunepull/pkg/models"
	"github.com/tunepull/tunepull/pkg/playlist"
	"github.com/tunepull/tunepull/pkg/store"
)

// Downloader is the subset of the download orchestrator the runner needs.
type Downloader interface {
	URL(ctx context.Context, rawURL string) *models.ResultSummary
	Search(ctx context.Context, query string) *models.ResultSummary
	TrackList(ctx context.Context, name string, tracks []models.Track) *models.ResultSummary
}

// PlaylistGenerator produces track lists from vibe descriptions.
type PlaylistGenerator interface {
	Generate(ctx context.Context, vibe string, count int) ([]models.Track, error)
}

// Runner executes accepted jobs asynchronously.
type Runner struct {
	ctx       context.Context
	store     store.Store
	downloads Downloader
	generator PlaylistGenerator
	exportDir string
	log       *logging.Logger
	wg        sync.WaitGroup
}

// NewRunner creates a Runner. Tasks inherit ctx, so cancelling it stops
// in-flight downloads between tracks.
func NewRunner(ctx context.Context, s store.Store, d Downloader, g PlaylistGenerator, exportDir string, log *logging.Logger) *Runner {
	return &Runner{
		ctx:       ctx,
		store:     s,
		downloads: d,
		generator: g,
		exportDir: exportDir,
		log:       log,
	}
}

// Wait blocks until all in-flight tasks have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run dispatches a job by input type. The job must already be persisted.
// The task works on its own copy so the caller can keep reading the job it
// passed in; status after this point comes from the store.
func (r *Runner) Run(job *models.Job, req models.JobRequest) {
	job = job.Clone()
	switch job.InputType {
	case models.InputVibeDescription:
		r.spawn(job, func(ctx context.Context, job *models.Job) {
			r.runVibe(ctx, job, req)
		})
	case models.InputPastedPlaylist:
		r.spawn(job, func(ctx context.Context, job *models.Job) {
			r.runPastedPlaylist(ctx, job, req)
		})
	case models.InputSpotifyTrack, models.InputSpotifyAlbum:
		r.spawn(job, func(ctx context.Context, job *models.Job) {
			job.Fail(fmt.Sprintf("%s inputs require spotify credentials and are not supported; submit a playlist URL or a search query instead", job.InputType))
			r.update(job)
		})
	case models.InputSearchQuery:
		r.spawn(job, func(ctx context.Context, job *models.Job) {
			r.runSearch(ctx, job)
		})
	default:
		// youtube_video, youtube_playlist, spotify_playlist
		r.spawn(job, func(ctx context.Context, job *models.Job) {
			r.runURL(ctx, job)
		})
	}
}

// spawn runs fn in a goroutine with a panic guard. A panicking task fails
// its job instead of leaving it stuck in a non-terminal state.
func (r *Runner) spawn(job *models.Job, fn func(ctx context.Context, job *models.Job)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("Job task panicked", map[string]interface{}{
					"job_id": job.ID,
					"panic":  fmt.Sprintf("%v", rec),
				})
				job.Fail(fmt.Sprintf("internal error: %v", rec))
				r.update(job)
			}
		}()
		fn(r.ctx, job)
	}()
}

func (r *Runner) runURL(ctx context.Context, job *models.Job) {
	if !r.transition(job, models.JobStatusDownloading) {
		return
	}
	summary := r.downloads.URL(ctx, job.InputValue)
	r.finish(job, summary)
}

func (r *Runner) runSearch(ctx context.Context, job *models.Job) {
	if !r.transition(job, models.JobStatusDownloading) {
		return
	}
	summary := r.downloads.Search(ctx, job.InputValue)
	r.finish(job, summary)
}

func (r *Runner) runVibe(ctx context.Context, job *models.Job, req models.JobRequest) {
	if !r.transition(job, models.JobStatusGenerating) {
		return
	}

	tracks, err := r.generator.Generate(ctx, job.InputValue, req.NumTracks)
	if err != nil {
		job.Fail(fmt.Sprintf("playlist generation failed: %v", err))
		r.update(job)
		return
	}

	if !r.transition(job, models.JobStatusDownloading) {
		return
	}

	name := req.PlaylistName
	if name == "" {
		name = job.InputValue
	}
	summary := r.downloads.TrackList(ctx, name, tracks)
	r.finish(job, summary)
}

func (r *Runner) runPastedPlaylist(ctx context.Context, job *models.Job, req models.JobRequest) {
	tracks := playlist.Parse(job.InputValue)
	if len(tracks) == 0 {
		job.Fail("could not parse any tracks from the pasted playlist")
		r.update(job)
		return
	}

	if !r.transition(job, models.JobStatusDownloading) {
		return
	}

	name := req.PlaylistName
	if name == "" {
		name = "pasted_playlist"
	}
	summary := r.downloads.TrackList(ctx, name, tracks)
	r.finish(job, summary)
}

// transition moves the job to the next state and persists it. A failed
// transition or store write fails the job.
func (r *Runner) transition(job *models.Job, to models.JobStatus) bool {
	if err := job.Transition(to); err != nil {
		job.Fail(err.Error())
		r.update(job)
		return false
	}
	if err := r.store.UpdateJob(job); err != nil {
		r.log.Error("Failed to persist job transition", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		// One more write so the stored job still ends up terminal instead
		// of stuck in whatever state the last successful update left it.
		job.Fail(fmt.Sprintf("could not persist %s transition: %v", to, err))
		r.update(job)
		return false
	}
	return true
}

// finish folds the download result into the job, records metrics, writes
// the failure report, and persists the terminal state.
func (r *Runner) finish(job *models.Job, summary *models.ResultSummary) {
	job.ApplyResult(summary)

	metrics.TracksDownloaded.Add(float64(summary.Completed))
	metrics.TracksFailed.Add(float64(summary.Failed))
	metrics.JobsFinished.WithLabelValues(string(job.Status)).Inc()
	if job.CompletedAt != nil {
		metrics.JobDuration.Observe(job.CompletedAt.Sub(job.CreatedAt).Seconds())
	}

	if path, err := export.WriteFailedTracks(r.exportDir, job); err != nil {
		r.log.Warn("Failed to write failure report", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	} else if path != "" {
		r.log.Info("Wrote failure report", map[string]interface{}{
			"job_id": job.ID,
			"path":   path,
		})
	}

	r.update(job)

	r.log.Info("Job finished", map[string]interface{}{
		"job_id":    job.ID,
		"status":    string(job.Status),
		"completed": job.CompletedTracks,
		"failed":    job.FailedTracks,
	})
}

func (r *Runner) update(job *models.Job) {
	if err := r.store.UpdateJob(job); err != nil {
		r.log.Error("Failed to persist job", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}
}
