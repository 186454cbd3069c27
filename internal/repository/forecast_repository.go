// forecast-go/internal/repository/forecast_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// ProductRepository reads the catalog joined with inventory
type ProductRepository interface {
	// GetProductInventory returns domain.ErrProductNotFound for unknown ids
	GetProductInventory(ctx context.Context, productID int64) (*domain.ProductInventory, error)
	// ListActiveProductInventories returns non-archived products, optionally limited to categories
	ListActiveProductInventories(ctx context.Context, categories []domain.Category) ([]domain.ProductInventory, error)
}

// AggregateRepository reads and writes materialized daily sales rows
type AggregateRepository interface {
	GetAggregates(ctx context.Context, productID int64, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error)
	// ListAggregates reads every product's rows for the union of ranges in one query
	ListAggregates(ctx context.Context, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error)
	// UpsertAggregate inserts or replaces the row keyed on (product_id, date)
	UpsertAggregate(ctx context.Context, agg domain.DailySalesAggregate) error
}

// SalesRepository reads completed transaction lines
type SalesRepository interface {
	GetSaleLines(ctx context.Context, productID int64, r domain.DateRange) ([]domain.SaleLine, error)
	// ListProductDaySales sums completed lines per product for one local calendar day
	ListProductDaySales(ctx context.Context, day time.Time) ([]domain.ProductDaySales, error)
	GetSalesTotals(ctx context.Context, productID int64, r domain.DateRange) (domain.SalesTotals, error)
	ListSalesTotals(ctx context.Context, r domain.DateRange) ([]domain.SalesTotals, error)
}

// EventRepository reads the demand event catalog
type EventRepository interface {
	// ListActiveEvents returns active events overlapping [start, end]
	ListActiveEvents(ctx context.Context, start, end time.Time) ([]domain.EventRecord, error)
}

// JobRunRepository tracks batch job executions
type JobRunRepository interface {
	CreateJobRun(ctx context.Context, run *domain.JobRun) error
	UpdateJobRun(ctx context.Context, run *domain.JobRun) error
	// GetJobRunByDate returns nil, nil when no run exists
	GetJobRunByDate(ctx context.Context, jobName string, date time.Time) (*domain.JobRun, error)
	ListRecentJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
}
