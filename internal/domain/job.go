package domain

import "time"

// JobStatus represents the current state of a job run
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobRun tracks a single execution of a batch job for a specific day
type JobRun struct {
	ID            int64      `json:"id" db:"id"`
	JobName       string     `json:"job_name" db:"job_name"`
	Date          time.Time  `json:"date" db:"run_date"`
	Status        JobStatus  `json:"status" db:"status"`
	ProcessedRows int        `json:"processed_rows" db:"processed_rows"`
	FailedRows    int        `json:"failed_rows" db:"failed_rows"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage  string     `json:"error_message,omitempty" db:"error_message"`
}
