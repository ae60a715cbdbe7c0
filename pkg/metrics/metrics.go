// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmitted counts accepted jobs by input type.
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunepull_jobs_submitted_total",
		Help: "Total number of jobs accepted by input type",
	}, []string{"input_type"})

	// JobsFinished counts jobs reaching a terminal state.
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunepull_jobs_finished_total",
		Help: "Total number of jobs finished by terminal status",
	}, []string{"status"})

	// TracksDownloaded counts successfully downloaded tracks.
	TracksDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tunepull_tracks_downloaded_total",
		Help: "Total number of tracks downloaded successfully",
	})

	// TracksFailed counts tracks that could not be downloaded.
	TracksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tunepull_tracks_failed_total",
		Help: "Total number of tracks that failed to download",
	})

	// JobDuration observes wall time from submission to terminal state.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tunepull_job_duration_seconds",
		Help:    "Job duration from submission to completion",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
