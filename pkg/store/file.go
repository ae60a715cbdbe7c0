package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/models"
)

// FileStore persists jobs to a single JSON file. Every mutation rewrites
// the whole file while holding the lock, so concurrent API and worker
// updates never interleave. Job volume is small enough that this is fine.
type FileStore struct {
	mu   sync.Mutex
	path string
	jobs map[string]*models.Job
	log  *logging.Logger
}

// NewFileStore opens or creates the job file at path. A missing or
// unreadable file starts the store empty rather than failing, so a
// corrupted file never blocks the service from coming up.
func NewFileStore(path string, log *logging.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	s := &FileStore{
		path: path,
		jobs: make(map[string]*models.Job),
		log:  log,
	}
	s.load()
	return s, nil
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Could not read job file, starting empty", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return
	}

	var jobs []*models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		s.log.Warn("Discarding corrupt job file, starting empty", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return
	}
	for _, job := range jobs {
		if job.ID != "" {
			s.jobs[job.ID] = job
		}
	}
}

// persist writes all jobs to disk. Caller must hold the lock.
func (s *FileStore) persist() error {
	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return s.persist()
}

func (s *FileStore) GetJob(id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *FileStore) GetAllJobs() ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	return jobs, nil
}

func (s *FileStore) UpdateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		return ErrJobNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return s.persist()
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) HealthCheck() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}
