package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository/memory"
)

var saleDay = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateCache(ctx context.Context) error {
	c.calls++
	return nil
}

func seededStore() *memory.Store {
	store := memory.NewStore(time.UTC)
	store.PutProduct(domain.ProductInventory{Product: domain.Product{ID: 1, Brand: "Indomie", Category: domain.CategoryInstantNoodles}})
	store.PutProduct(domain.ProductInventory{Product: domain.Product{ID: 2, Brand: "Ultra", Category: domain.CategoryDairy}})

	sale := func(txn, productID int64, at time.Time, qty int, price, cost int64) {
		store.AddSale(memory.Sale{
			TransactionID: txn,
			ProductID:     productID,
			CompletedAt:   at,
			Quantity:      qty,
			UnitPrice:     decimal.NewFromInt(price),
			UnitCost:      decimal.NewFromInt(cost),
			Completed:     true,
		})
	}

	sale(1, 1, saleDay.Add(9*time.Hour), 3, 3000, 2500)
	sale(1, 2, saleDay.Add(9*time.Hour), 1, 18000, 15000)
	sale(2, 1, saleDay.Add(15*time.Hour), 2, 3000, 2500)
	sale(3, 1, saleDay.Add(15*time.Hour), 1, 3000, 2500)
	// next day, outside the run
	sale(4, 1, saleDay.Add(26*time.Hour), 10, 3000, 2500)
	// never completed
	store.AddSale(memory.Sale{TransactionID: 5, ProductID: 2, CompletedAt: saleDay.Add(10 * time.Hour), Quantity: 7})

	brand := "INDOMIE"
	store.AddEvent(domain.EventRecord{
		ID: 11, Name: "Indomie fest", Source: domain.EventSourceManufacturerCampaign,
		StartDate: saleDay, EndDate: domain.AddDays(saleDay, 2), Multiplier: 1.6, Brand: &brand, IsActive: true,
	})
	store.AddEvent(domain.EventRecord{
		ID: 12, Name: "Weekend", Source: domain.EventSourceStoreDiscount,
		StartDate: domain.AddDays(saleDay, 1), EndDate: domain.AddDays(saleDay, 1), Multiplier: 1.2, IsActive: true,
	})

	return store
}

func newJob(store *memory.Store, inv CacheInvalidator) *AggregationJob {
	job := NewAggregationJob(store, store, store, store, inv, time.UTC)
	job.now = func() time.Time { return saleDay.Add(30 * time.Hour) }
	return job
}

func TestAggregationRun(t *testing.T) {
	store := seededStore()
	inv := &countingInvalidator{}
	job := newJob(store, inv)

	res, err := job.Run(context.Background(), saleDay.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, res.EventDays)
	assert.Equal(t, 1, inv.calls)

	noodles, ok := store.Aggregate(1, saleDay)
	require.True(t, ok)
	assert.Equal(t, 6, noodles.QuantitySold)
	assert.Equal(t, 3, noodles.TransactionCount)
	assert.True(t, noodles.Revenue.Equal(decimal.NewFromInt(18000)))
	assert.True(t, noodles.Profit.Equal(decimal.NewFromInt(3000)))
	assert.True(t, noodles.IsEventDay)
	assert.Equal(t, domain.EventSourceManufacturerCampaign, noodles.EventSource)
	require.NotNil(t, noodles.EventID)
	assert.Equal(t, int64(11), *noodles.EventID)

	milk, ok := store.Aggregate(2, saleDay)
	require.True(t, ok)
	assert.Equal(t, 1, milk.QuantitySold)
	assert.False(t, milk.IsEventDay)
	assert.Nil(t, milk.EventID)
	assert.Equal(t, domain.EventSourceNone, milk.EventSource)

	run, err := store.GetJobRunByDate(context.Background(), AggregationJobName, saleDay)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.JobStatusCompleted, run.Status)
	assert.Equal(t, 2, run.ProcessedRows)
	assert.NotNil(t, run.CompletedAt)
}

func TestAggregationRunIsIdempotent(t *testing.T) {
	store := seededStore()
	job := newJob(store, nil)
	ctx := context.Background()

	_, err := job.Run(ctx, saleDay)
	require.NoError(t, err)
	first, _ := store.Aggregate(1, saleDay)
	count := store.AggregateCount()

	_, err = job.Run(ctx, saleDay)
	require.NoError(t, err)
	second, _ := store.Aggregate(1, saleDay)

	assert.Equal(t, count, store.AggregateCount())
	assert.Equal(t, first, second)
}

func TestAggregationContinuesPastFailures(t *testing.T) {
	store := seededStore()
	boom := errors.New("disk full")
	store.UpsertErrors[1] = boom
	inv := &countingInvalidator{}
	job := newJob(store, inv)

	res, err := job.Run(context.Background(), saleDay)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, inv.calls)

	_, ok := store.Aggregate(2, saleDay)
	assert.True(t, ok, "other products are still written")
	_, ok = store.Aggregate(1, saleDay)
	assert.False(t, ok)

	run, _ := store.GetJobRunByDate(context.Background(), AggregationJobName, saleDay)
	require.NotNil(t, run)
	assert.Equal(t, domain.JobStatusFailed, run.Status)
	assert.Equal(t, 1, run.FailedRows)
	assert.Contains(t, run.ErrorMessage, "disk full")

	// fixing the failure and re-running completes the day
	delete(store.UpsertErrors, 1)
	_, err = job.Run(context.Background(), saleDay)
	require.NoError(t, err)
	_, ok = store.Aggregate(1, saleDay)
	assert.True(t, ok)
}

func TestAggregateDailySalesDefaultsToYesterday(t *testing.T) {
	store := seededStore()
	job := newJob(store, nil)

	res, err := job.AggregateDailySales(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, saleDay, res.Date)
	assert.Equal(t, 2, res.Processed)
}

func TestBackfill(t *testing.T) {
	store := seededStore()
	job := newJob(store, nil)
	ctx := context.Background()

	results, err := job.Backfill(ctx, saleDay, domain.AddDays(saleDay, 2))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Processed)
	assert.Equal(t, 1, results[1].Processed)
	assert.Equal(t, 0, results[2].Processed)

	next, ok := store.Aggregate(1, domain.AddDays(saleDay, 1))
	require.True(t, ok)
	assert.Equal(t, 10, next.QuantitySold)
	// campaign outranks the store-wide discount on overlapping days
	assert.Equal(t, domain.EventSourceManufacturerCampaign, next.EventSource)

	_, err = job.Backfill(ctx, domain.AddDays(saleDay, 2), saleDay)
	assert.Error(t, err)
}

func TestSchedulerTick(t *testing.T) {
	store := seededStore()
	job := newJob(store, nil)
	s := NewScheduler(zerolog.Nop(), job, 2)
	ctx := context.Background()

	today := domain.AddDays(saleDay, 1)

	assert.False(t, s.tick(ctx, today.Add(1*time.Hour)), "before run hour")
	assert.True(t, s.tick(ctx, today.Add(2*time.Hour)))
	assert.False(t, s.tick(ctx, today.Add(5*time.Hour)), "once per day")

	_, ok := store.Aggregate(1, saleDay)
	assert.True(t, ok)

	assert.True(t, s.tick(ctx, today.Add(26*time.Hour)))
	_, ok = store.Aggregate(1, today)
	assert.True(t, ok)
}
