package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const jobRunColumns = `
	id, job_name, run_date, status, processed_rows, failed_rows,
	started_at, completed_at, error_message
`

// jobRunRepository handles database operations for job run tracking
type jobRunRepository struct {
	db *DB
}

func NewJobRunRepository(db *DB) *jobRunRepository {
	return &jobRunRepository{db: db}
}

// CreateJobRun creates a new job run record
func (r *jobRunRepository) CreateJobRun(ctx context.Context, run *domain.JobRun) error {
	query := `
		INSERT INTO job_runs (
			job_name, run_date, status, processed_rows, failed_rows, started_at
		) VALUES ($1, $2::date, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.JobName, run.Date.Format(domain.DateLayout), run.Status,
		run.ProcessedRows, run.FailedRows, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("error creating job run: %w", err)
	}

	return nil
}

// UpdateJobRun updates an existing job run
func (r *jobRunRepository) UpdateJobRun(ctx context.Context, run *domain.JobRun) error {
	query := `
		UPDATE job_runs
		SET status = $1, processed_rows = $2, failed_rows = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedRows, run.FailedRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating job run %d: %w", run.ID, err)
	}

	return nil
}

// GetJobRunByDate retrieves the latest run of a job for a specific date
func (r *jobRunRepository) GetJobRunByDate(ctx context.Context, jobName string, date time.Time) (*domain.JobRun, error) {
	query := `
		SELECT ` + jobRunColumns + `
		FROM job_runs
		WHERE job_name = $1 AND run_date = $2::date
		ORDER BY started_at DESC
		LIMIT 1
	`

	run := &domain.JobRun{}
	err := r.db.GetContext(ctx, run, query, jobName, date.Format(domain.DateLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting job run: %w", err)
	}

	return run, nil
}

// ListRecentJobRuns returns the most recent runs of a job, newest first
func (r *jobRunRepository) ListRecentJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT ` + jobRunColumns + `
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	var runs []domain.JobRun
	if err := r.db.SelectContext(ctx, &runs, query, jobName, limit); err != nil {
		return nil, fmt.Errorf("error listing job runs: %w", err)
	}

	return runs, nil
}
