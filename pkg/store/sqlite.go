package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tunepull/tunepull/pkg/models"
)

// SQLiteStore persists jobs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_cache_size=-8000&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; avoids SQLITE_BUSY under concurrent job updates.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		input_type TEXT NOT NULL,
		input_value TEXT NOT NULL,
		status TEXT NOT NULL,
		total_tracks INTEGER NOT NULL DEFAULT 0,
		completed_tracks INTEGER NOT NULL DEFAULT 0,
		failed_tracks INTEGER NOT NULL DEFAULT 0,
		error_messages TEXT,
		failed_track_details TEXT,
		output_directory TEXT,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateJob(job *models.Job) error {
	errMsgs, details, err := marshalJobSlices(job)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs (id, input_type, input_value, status, total_tracks,
			completed_tracks, failed_tracks, error_messages, failed_track_details,
			output_directory, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.InputType), job.InputValue, string(job.Status),
		job.TotalTracks, job.CompletedTracks, job.FailedTracks,
		errMsgs, details, job.OutputDirectory, job.CreatedAt, nullTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetJob(id string) (*models.Job, error) {
	row := s.db.QueryRow(`
		SELECT id, input_type, input_value, status, total_tracks,
			completed_tracks, failed_tracks, error_messages, failed_track_details,
			output_directory, created_at, completed_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *SQLiteStore) GetAllJobs() ([]*models.Job, error) {
	rows, err := s.db.Query(`
		SELECT id, input_type, input_value, status, total_tracks,
			completed_tracks, failed_tracks, error_messages, failed_track_details,
			output_directory, created_at, completed_at
		FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) UpdateJob(job *models.Job) error {
	errMsgs, details, err := marshalJobSlices(job)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE jobs SET status = ?, total_tracks = ?, completed_tracks = ?,
			failed_tracks = ?, error_messages = ?, failed_track_details = ?,
			output_directory = ?, completed_at = ?
		WHERE id = ?`,
		string(job.Status), job.TotalTracks, job.CompletedTracks,
		job.FailedTracks, errMsgs, details, job.OutputDirectory,
		nullTime(job.CompletedAt), job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job         models.Job
		inputType   string
		status      string
		errMsgs     sql.NullString
		details     sql.NullString
		completedAt sql.NullTime
	)

	err := row.Scan(&job.ID, &inputType, &job.InputValue, &status,
		&job.TotalTracks, &job.CompletedTracks, &job.FailedTracks,
		&errMsgs, &details, &job.OutputDirectory, &job.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	job.InputType = models.InputType(inputType)
	job.Status = models.JobStatus(status)

	if errMsgs.Valid && errMsgs.String != "" {
		if err := json.Unmarshal([]byte(errMsgs.String), &job.ErrorMessages); err != nil {
			return nil, fmt.Errorf("failed to decode error messages: %w", err)
		}
	}
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &job.FailedTrackDetails); err != nil {
			return nil, fmt.Errorf("failed to decode failed tracks: %w", err)
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func marshalJobSlices(job *models.Job) (string, string, error) {
	errMsgs, err := json.Marshal(job.ErrorMessages)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode error messages: %w", err)
	}
	details, err := json.Marshal(job.FailedTrackDetails)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode failed tracks: %w", err)
	}
	return string(errMsgs), string(details), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
