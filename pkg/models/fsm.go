package models

import "fmt"

// validTransitions maps from-status to allowed to-statuses. Progress is
// strictly forward: a job never returns to an earlier state.
var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusQueued: {
		JobStatusGenerating:  true, // Queued → Generating (vibe input, playlist being generated)
		JobStatusDownloading: true, // Queued → Downloading (direct URL/search/track-list input)
		JobStatusFailed:      true, // Queued → Failed (task died before any work started)
	},
	JobStatusGenerating: {
		JobStatusDownloading: true, // Generating → Downloading (playlist generated, fetching tracks)
		JobStatusFailed:      true, // Generating → Failed (generation backend failed)
	},
	JobStatusDownloading: {
		JobStatusCompleted:           true, // Downloading → Completed (every item succeeded)
		JobStatusCompletedWithErrors: true, // Downloading → CompletedWithErrors (partial success)
		JobStatusFailed:              true, // Downloading → Failed (nothing completed)
	},
	// Terminal states (no transitions allowed)
	JobStatusCompleted:           {},
	JobStatusCompletedWithErrors: {},
	JobStatusFailed:              {},
}

// ValidateTransition checks if a status transition is valid
func ValidateTransition(from, to JobStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source status: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalStatus returns true if the status is terminal (no further transitions)
func IsTerminalStatus(status JobStatus) bool {
	return status == JobStatusCompleted ||
		status == JobStatusCompletedWithErrors ||
		status == JobStatusFailed
}

// Transition validates and applies a status change on the job.
func (j *Job) Transition(to JobStatus) error {
	if err := ValidateTransition(j.Status, to); err != nil {
		return err
	}
	j.Status = to
	return nil
}
