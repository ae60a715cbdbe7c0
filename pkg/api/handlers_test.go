package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunepull/tunepull/pkg/api"
	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/models"
	"github.com/tunepull/tunepull/pkg/store"
	"github.com/tunepull/tunepull/pkg/worker"
)

type fakeDownloader struct{}

func (fakeDownloader) URL(ctx context.Context, rawURL string) *models.ResultSummary {
	return &models.ResultSummary{Success: true, Total: 1, Completed: 1}
}
func (fakeDownloader) Search(ctx context.Context, query string) *models.ResultSummary {
	return &models.ResultSummary{Success: true, Total: 1, Completed: 1}
}
func (fakeDownloader) TrackList(ctx context.Context, name string, tracks []models.Track) *models.ResultSummary {
	return &models.ResultSummary{Success: true, Total: len(tracks), Completed: len(tracks)}
}

type fakeGenerator struct {
	pingErr error
}

func (f *fakeGenerator) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeGenerator) Generate(ctx context.Context, vibe string, count int) ([]models.Track, error) {
	return []models.Track{{Artist: "A", Title: "B"}}, nil
}

type testEnv struct {
	router *mux.Router
	store  store.Store
	runner *worker.Runner
}

func newTestEnv(t *testing.T, gen *fakeGenerator) *testEnv {
	t.Helper()

	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "jobs.json"), logging.NewLogger(logging.ERROR, false))
	require.NoError(t, err)

	log := logging.NewLogger(logging.ERROR, false)
	runner := worker.NewRunner(context.Background(), s, fakeDownloader{}, gen, t.TempDir(), log)
	handler := api.NewHandler(s, runner, gen, t.TempDir(), 30, log)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return &testEnv{router: router, store: s, runner: runner}
}

func submit(t *testing.T, env *testEnv, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitSearchJob(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	rec := submit(t, env, models.JobRequest{Input: "Radiohead - Creep"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["job_id"])
	assert.Equal(t, "queued", resp["status"])
	assert.Contains(t, resp["message"], "search_query")

	env.runner.Wait()
	job, err := env.store.GetJob(resp["job_id"])
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
}

func TestSubmitConcurrentJobs(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	// Tasks finish instantly, so they race the 202 response. Every
	// response must still report the job as submitted, and every job
	// must still reach a terminal state.
	var wg sync.WaitGroup
	codes := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := submit(t, env, models.JobRequest{Input: "Radiohead - Creep"})
			codes <- rec.Code

			var resp map[string]string
			if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)) {
				assert.Equal(t, "queued", resp["status"])
			}
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusAccepted, code)
	}

	env.runner.Wait()
	jobs, err := env.store.GetAllJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 50)
	for _, job := range jobs {
		assert.Equal(t, models.JobStatusCompleted, job.Status)
	}
}

func TestSubmitEmptyInput(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	rec := submit(t, env, models.JobRequest{Input: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitInvalidBody(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitVibeJobGeneratorDown(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{pingErr: errors.New("connection refused")})

	rec := submit(t, env, models.JobRequest{Input: "chill sunday morning"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	jobs, err := env.store.GetAllJobs()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmitVibeJobGeneratorUp(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	rec := submit(t, env, models.JobRequest{Input: "chill sunday morning", NumTracks: 3})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "vibe_description")
	env.runner.Wait()
}

func TestSubmitPastedPlaylist(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	rec := submit(t, env, models.JobRequest{
		Input: "1. Song One\nArtist One\n3:45\n2. Song Two\nArtist Two",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "pasted_playlist")
	env.runner.Wait()
}

func TestSubmitPastedPlaylistUnparseable(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	// Multi-line input starting with a digit but containing only durations.
	rec := submit(t, env, models.JobRequest{Input: "3:45\n4:01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobsNewestFirst(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	old := models.NewJob(models.InputSearchQuery, "first")
	old.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, env.store.CreateJob(old))

	recent := models.NewJob(models.InputSearchQuery, "second")
	require.NoError(t, env.store.CreateJob(recent))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "second", jobs[0].InputValue)
	assert.Equal(t, "first", jobs[1].InputValue)
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	job := models.NewJob(models.InputYouTubeVideo, "https://youtu.be/abc")
	require.NoError(t, env.store.CreateJob(job))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, job.ID, got.ID)
}

func TestGetJobNotFound(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
