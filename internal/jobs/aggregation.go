package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// AggregationJobName identifies the daily aggregation in job_runs
const AggregationJobName = "daily_sales_aggregation"

// CacheInvalidator drops cached forecasts once new aggregates land
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// AggregationResult summarizes one day's aggregation
type AggregationResult struct {
	Date      time.Time `json:"date"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	EventDays int       `json:"event_days"`
	RunID     int64     `json:"run_id,omitempty"`
}

// AggregationJob materializes per-product daily sales from completed transactions.
// It is the only writer of daily aggregates and is safe to re-run for a day.
type AggregationJob struct {
	sales       repository.SalesRepository
	aggregates  repository.AggregateRepository
	events      repository.EventRepository
	runs        repository.JobRunRepository
	invalidator CacheInvalidator
	loc         *time.Location
	now         func() time.Time
}

func NewAggregationJob(
	sales repository.SalesRepository,
	aggregates repository.AggregateRepository,
	events repository.EventRepository,
	runs repository.JobRunRepository,
	invalidator CacheInvalidator,
	loc *time.Location,
) *AggregationJob {
	if loc == nil {
		loc = time.UTC
	}
	return &AggregationJob{
		sales:       sales,
		aggregates:  aggregates,
		events:      events,
		runs:        runs,
		invalidator: invalidator,
		loc:         loc,
		now:         time.Now,
	}
}

// Yesterday is the most recent completed calendar day in the store zone
func (j *AggregationJob) Yesterday() time.Time {
	return domain.AddDays(j.now().In(j.loc), -1)
}

// AggregateDailySales aggregates date, or yesterday when date is zero
func (j *AggregationJob) AggregateDailySales(ctx context.Context, date time.Time) (*AggregationResult, error) {
	if date.IsZero() {
		date = j.Yesterday()
	}
	return j.Run(ctx, date)
}

// Run aggregates one day. Upserts are independent: a failing product does not stop
// the rest, and all failures are returned joined after the loop.
func (j *AggregationJob) Run(ctx context.Context, day time.Time) (*AggregationResult, error) {
	day = domain.DateOf(day)
	result := &AggregationResult{Date: day}
	logger := log.With().Str("job", AggregationJobName).Str("date", day.Format(domain.DateLayout)).Logger()

	run := j.startRun(ctx, day)
	if run != nil {
		result.RunID = run.ID
	}

	// 1. Completed sales grouped by product
	rows, err := j.sales.ListProductDaySales(ctx, day)
	if err != nil {
		err = fmt.Errorf("error reading sales for %s: %w", day.Format(domain.DateLayout), err)
		j.finishRun(ctx, run, result, err)
		return result, err
	}

	// 2. Events overlapping the day
	events, err := j.events.ListActiveEvents(ctx, day, day)
	if err != nil {
		err = fmt.Errorf("error reading events for %s: %w", day.Format(domain.DateLayout), err)
		j.finishRun(ctx, run, result, err)
		return result, err
	}

	// 3. One upsert per product
	var errs []error
	for _, row := range rows {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		agg := buildAggregate(row, day, events)
		if agg.IsEventDay {
			result.EventDays++
		}

		if err := j.aggregates.UpsertAggregate(ctx, agg); err != nil {
			logger.Error().Err(err).Int64("product_id", row.ProductID).Msg("aggregation: upsert failed")
			errs = append(errs, fmt.Errorf("product %d: %w", row.ProductID, err))
			result.Failed++
			continue
		}
		result.Processed++
	}

	runErr := errors.Join(errs...)
	j.finishRun(ctx, run, result, runErr)

	if result.Processed > 0 && j.invalidator != nil {
		if err := j.invalidator.InvalidateCache(ctx); err != nil {
			logger.Warn().Err(err).Msg("aggregation: cache invalidation failed")
		}
	}

	logger.Info().
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Int("event_days", result.EventDays).
		Msg("aggregation: completed")

	return result, runErr
}

// Backfill runs the job for every day in [from, to], continuing past failed days.
func (j *AggregationJob) Backfill(ctx context.Context, from, to time.Time) ([]AggregationResult, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("backfill range ends before it starts: %s > %s",
			from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	}

	var results []AggregationResult
	var errs []error
	for day := from; !day.After(to); day = domain.AddDays(day, 1) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := j.Run(ctx, day)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", day.Format(domain.DateLayout), err))
		}
	}

	return results, errors.Join(errs...)
}

func buildAggregate(row domain.ProductDaySales, day time.Time, events []domain.EventRecord) domain.DailySalesAggregate {
	agg := domain.DailySalesAggregate{
		ProductID:        row.ProductID,
		Date:             day,
		QuantitySold:     row.QuantitySold,
		Revenue:          row.Revenue,
		Cost:             row.Cost,
		Profit:           row.Revenue.Sub(row.Cost),
		TransactionCount: row.TransactionCount,
	}

	product := domain.Product{ID: row.ProductID, Brand: row.Brand, Category: row.Category}
	if e, ok := forecast.StrongestEvent(forecast.ActiveEvents(events, product, day)); ok {
		id := e.ID
		agg.IsEventDay = true
		agg.EventID = &id
		agg.EventSource = e.Source
	}

	return agg
}

func (j *AggregationJob) startRun(ctx context.Context, day time.Time) *domain.JobRun {
	if j.runs == nil {
		return nil
	}

	run := &domain.JobRun{
		JobName:   AggregationJobName,
		Date:      day,
		Status:    domain.JobStatusRunning,
		StartedAt: j.now(),
	}
	if err := j.runs.CreateJobRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("aggregation: could not record job run")
		return nil
	}

	return run
}

func (j *AggregationJob) finishRun(ctx context.Context, run *domain.JobRun, result *AggregationResult, runErr error) {
	if run == nil {
		return
	}

	now := j.now()
	run.CompletedAt = &now
	run.ProcessedRows = result.Processed
	run.FailedRows = result.Failed
	run.Status = domain.JobStatusCompleted
	if runErr != nil {
		run.Status = domain.JobStatusFailed
		run.ErrorMessage = runErr.Error()
	}

	if err := j.runs.UpdateJobRun(ctx, run); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("aggregation: could not update job run")
	}
}

// RecentRuns lists the latest tracked runs of the aggregation
func (j *AggregationJob) RecentRuns(ctx context.Context, limit int) ([]domain.JobRun, error) {
	if j.runs == nil {
		return []domain.JobRun{}, nil
	}
	return j.runs.ListRecentJobRuns(ctx, AggregationJobName, limit)
}

// RunForDate returns the latest tracked run for day, or nil when the day never ran
func (j *AggregationJob) RunForDate(ctx context.Context, day time.Time) (*domain.JobRun, error) {
	if j.runs == nil {
		return nil, nil
	}
	return j.runs.GetJobRunByDate(ctx, AggregationJobName, domain.DateOf(day))
}
