// Package api implements the HTTP job API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tunepull/tunepull/pkg/classify"
	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/metrics"
	"github.com/tunepull/tunepull/pkg/models"
	"github.com/tunepull/tunepull/pkg/playlist"
	"github.com/tunepull/tunepull/pkg/store"
	"github.com/tunepull/tunepull/pkg/worker"
)

// Pinger reports whether the playlist generator backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the job API.
type Handler struct {
	store            store.Store
	runner           *worker.Runner
	generator        Pinger
	downloadDir      string
	defaultNumTracks int
	log              *logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(s store.Store, runner *worker.Runner, generator Pinger, downloadDir string, defaultNumTracks int, log *logging.Logger) *Handler {
	return &Handler{
		store:            s,
		runner:           runner,
		generator:        generator,
		downloadDir:      downloadDir,
		defaultNumTracks: defaultNumTracks,
		log:              log,
	}
}

// RegisterRoutes registers all API routes on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs", h.SubmitJob).Methods("POST")
	r.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/api/jobs/{id}", h.GetJob).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitJob accepts a new download job. Classification happens here so the
// client learns immediately what the input was taken for; the actual work
// runs in the background and is polled via GET /api/jobs/{id}.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req models.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		h.writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	if req.NumTracks <= 0 {
		req.NumTracks = h.defaultNumTracks
	}

	var (
		inputType models.InputType
		value     string
	)
	if playlist.LooksLikePlaylist(req.Input) {
		if len(playlist.Parse(req.Input)) == 0 {
			h.writeError(w, http.StatusBadRequest, "could not parse any tracks from the pasted playlist")
			return
		}
		inputType, value = models.InputPastedPlaylist, req.Input
	} else {
		inputType, value = classify.Detect(req.Input)
	}

	// Vibe jobs need the generator; reject up front when it is down so the
	// client gets a 503 instead of a failed job.
	if inputType == models.InputVibeDescription {
		if err := h.generator.Ping(r.Context()); err != nil {
			h.log.Warn("Generator unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			h.writeError(w, http.StatusServiceUnavailable, "playlist generator is unavailable")
			return
		}
	}

	job := models.NewJob(inputType, value)
	if err := h.store.CreateJob(job); err != nil {
		h.log.Error("Failed to create job", map[string]interface{}{
			"error": err.Error(),
		})
		h.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	metrics.JobsSubmitted.WithLabelValues(string(inputType)).Inc()
	h.runner.Run(job, req)

	h.log.Info("Job accepted", map[string]interface{}{
		"job_id":     job.ID,
		"input_type": string(inputType),
	})

	h.writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "job accepted as " + string(inputType),
	})
}

// ListJobs returns all jobs, newest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.GetAllJobs()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	h.writeJSON(w, http.StatusOK, jobs)
}

// GetJob returns a single job by ID.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.store.GetJob(id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type healthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	DiskFreeBytes uint64 `json:"disk_free_bytes,omitempty"`
}

// Health reports store and disk health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok"}

	if err := h.store.HealthCheck(); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if usage, err := disk.Usage(h.downloadDir); err == nil {
		resp.DiskFreeBytes = usage.Free
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
