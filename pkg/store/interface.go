// Package store persists jobs across process restarts. Two backends are
// provided: a JSON file store for the default single-node setup and a
// SQLite store for installs that want queryable history.
package store

import (
	"errors"

	"github.com/tunepull/tunepull/pkg/logging"
	"github.com/tunepull/tunepull/pkg/models"
)

// ErrJobNotFound is returned when a job ID does not exist in the store.
var ErrJobNotFound = errors.New("job not found")

// Store defines the interface for job persistence.
type Store interface {
	CreateJob(job *models.Job) error
	GetJob(id string) (*models.Job, error)
	GetAllJobs() ([]*models.Job, error)
	UpdateJob(job *models.Job) error

	// Lifecycle
	Close() error
	HealthCheck() error
}

// Config holds persistence configuration.
type Config struct {
	Type string // "file" or "sqlite"

	// File backend
	Path string

	// SQLite backend
	DSN string
}

// NewStore creates a store based on configuration.
func NewStore(config Config, log *logging.Logger) (Store, error) {
	switch config.Type {
	case "sqlite":
		dsn := config.DSN
		if dsn == "" {
			dsn = "tunepull.db"
		}
		return NewSQLiteStore(dsn)
	case "file", "":
		path := config.Path
		if path == "" {
			path = "jobs.json"
		}
		return NewFileStore(path, log)
	default:
		return nil, errors.New("unsupported store type: " + config.Type)
	}
}
