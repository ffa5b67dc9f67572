package models

import (
	"time"

	"github.com/google/uuid"
)

// JobState tracks a transcription job through the local pipeline.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobSubmitting JobState = "submitting"
	JobPolling    JobState = "polling"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobTimedOut   JobState = "timed_out"
	JobCancelled  JobState = "cancelled"
)

// Terminal reports whether the job will not change state again.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimedOut, JobCancelled:
		return true
	}
	return false
}

// TranscriptionJob is a snapshot of one job as exposed over the API.
// Progress is a UI affordance: a monotonically non-decreasing percentage
// estimate that reaches exactly 100 only when the job completes.
type TranscriptionJob struct {
	ID           uuid.UUID            `json:"id"`
	State        JobState             `json:"state"`
	Progress     float64              `json:"progress"`
	MediaURL     string               `json:"media_url,omitempty"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	Result       *TranscriptionResult `json:"result,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
