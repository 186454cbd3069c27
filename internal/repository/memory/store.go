// Package memory is an in-process implementation of the repository interfaces used by
// tests and local experiments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
)

var (
	_ repository.ProductRepository   = (*Store)(nil)
	_ repository.AggregateRepository = (*Store)(nil)
	_ repository.SalesRepository     = (*Store)(nil)
	_ repository.EventRepository     = (*Store)(nil)
	_ repository.JobRunRepository    = (*Store)(nil)
	_ repository.CatalogRepository   = (*Store)(nil)
)

// Sale is a completed transaction line held by the store
type Sale struct {
	TransactionID int64
	ProductID     int64
	CompletedAt   time.Time
	Quantity      int
	UnitPrice     decimal.Decimal
	UnitCost      decimal.Decimal
	Completed     bool
}

type aggregateKey struct {
	productID int64
	date      time.Time
}

// Store keeps everything in maps guarded by a single mutex
type Store struct {
	mu         sync.RWMutex
	loc        *time.Location
	products   map[int64]domain.ProductInventory
	sales      []Sale
	events     []domain.EventRecord
	aggregates map[aggregateKey]domain.DailySalesAggregate
	jobRuns    []domain.JobRun
	nextRunID  int64
	nextTxnID  int64

	// UpsertErrors makes UpsertAggregate fail for the given product ids
	UpsertErrors map[int64]error

	calls map[string]int
}

func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:          loc,
		products:     make(map[int64]domain.ProductInventory),
		aggregates:   make(map[aggregateKey]domain.DailySalesAggregate),
		UpsertErrors: make(map[int64]error),
		calls:        make(map[string]int),
	}
}

// PutProduct adds or replaces a product with its inventory record
func (s *Store) PutProduct(pi domain.ProductInventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi.InventoryRecord.ProductID = pi.Product.ID
	s.products[pi.Product.ID] = pi
}

// AddSale records a transaction line
func (s *Store) AddSale(sale Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
}

// AddEvent records an event
func (s *Store) AddEvent(e domain.EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// PutAggregate writes an aggregate row directly
func (s *Store) PutAggregate(agg domain.DailySalesAggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg.Date = domain.DateOf(agg.Date)
	s.aggregates[aggregateKey{agg.ProductID, agg.Date}] = agg
}

// Aggregate returns the stored row for (productID, day)
func (s *Store) Aggregate(productID int64, day time.Time) (domain.DailySalesAggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg, ok := s.aggregates[aggregateKey{productID, domain.DateOf(day)}]
	return agg, ok
}

// AggregateCount returns the number of stored aggregate rows
func (s *Store) AggregateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aggregates)
}

// Calls returns how often a repository method was invoked
func (s *Store) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

// ResetCalls clears the call counters
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

func (s *Store) track(method string) {
	s.calls[method]++
}

func (s *Store) localDay(t time.Time) time.Time {
	return domain.DateOf(t.In(s.loc))
}

func (s *Store) GetProductInventory(ctx context.Context, productID int64) (*domain.ProductInventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetProductInventory")

	pi, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
	}
	return &pi, nil
}

func (s *Store) ListActiveProductInventories(ctx context.Context, categories []domain.Category) ([]domain.ProductInventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListActiveProductInventories")

	allowed := make(map[domain.Category]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	var items []domain.ProductInventory
	for _, pi := range s.products {
		if pi.IsArchived {
			continue
		}
		if len(allowed) > 0 && !allowed[pi.Category] {
			continue
		}
		items = append(items, pi)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Product.ID < items[j].Product.ID })

	return items, nil
}

func inRanges(day time.Time, ranges []domain.DateRange) bool {
	for _, r := range ranges {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

func (s *Store) GetAggregates(ctx context.Context, productID int64, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetAggregates")

	var rows []domain.DailySalesAggregate
	for k, agg := range s.aggregates {
		if k.productID == productID && inRanges(k.date, ranges) {
			rows = append(rows, agg)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })

	return rows, nil
}

func (s *Store) ListAggregates(ctx context.Context, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListAggregates")

	var rows []domain.DailySalesAggregate
	for k, agg := range s.aggregates {
		if inRanges(k.date, ranges) {
			rows = append(rows, agg)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].Date.After(rows[j].Date)
	})

	return rows, nil
}

func (s *Store) UpsertAggregate(ctx context.Context, agg domain.DailySalesAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("UpsertAggregate")

	if err := s.UpsertErrors[agg.ProductID]; err != nil {
		return err
	}
	agg.Date = domain.DateOf(agg.Date)
	s.aggregates[aggregateKey{agg.ProductID, agg.Date}] = agg

	return nil
}

func (s *Store) GetSaleLines(ctx context.Context, productID int64, r domain.DateRange) ([]domain.SaleLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetSaleLines")

	var lines []domain.SaleLine
	for _, sale := range s.sales {
		if !sale.Completed || sale.ProductID != productID || !r.Contains(s.localDay(sale.CompletedAt)) {
			continue
		}
		qty := decimal.NewFromInt(int64(sale.Quantity))
		lines = append(lines, domain.SaleLine{
			ProductID:     sale.ProductID,
			TransactionID: sale.TransactionID,
			CompletedAt:   sale.CompletedAt,
			Quantity:      sale.Quantity,
			Revenue:       sale.UnitPrice.Mul(qty),
			Cost:          sale.UnitCost.Mul(qty),
		})
	}

	return lines, nil
}

func (s *Store) ListProductDaySales(ctx context.Context, day time.Time) ([]domain.ProductDaySales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListProductDaySales")

	target := domain.DateOf(day)
	byProduct := make(map[int64]*domain.ProductDaySales)
	txns := make(map[int64]map[int64]bool)
	for _, sale := range s.sales {
		if !sale.Completed || !s.localDay(sale.CompletedAt).Equal(target) {
			continue
		}
		row, ok := byProduct[sale.ProductID]
		if !ok {
			pi := s.products[sale.ProductID]
			row = &domain.ProductDaySales{ProductID: sale.ProductID, Brand: pi.Brand, Category: pi.Category}
			byProduct[sale.ProductID] = row
			txns[sale.ProductID] = make(map[int64]bool)
		}
		qty := decimal.NewFromInt(int64(sale.Quantity))
		row.QuantitySold += sale.Quantity
		row.Revenue = row.Revenue.Add(sale.UnitPrice.Mul(qty))
		row.Cost = row.Cost.Add(sale.UnitCost.Mul(qty))
		txns[sale.ProductID][sale.TransactionID] = true
	}

	rows := make([]domain.ProductDaySales, 0, len(byProduct))
	for id, row := range byProduct {
		row.TransactionCount = len(txns[id])
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })

	return rows, nil
}

func (s *Store) totals(r domain.DateRange) map[int64]*domain.SalesTotals {
	out := make(map[int64]*domain.SalesTotals)
	days := make(map[int64]map[time.Time]bool)
	for _, sale := range s.sales {
		d := s.localDay(sale.CompletedAt)
		if !sale.Completed || !r.Contains(d) {
			continue
		}
		t, ok := out[sale.ProductID]
		if !ok {
			t = &domain.SalesTotals{ProductID: sale.ProductID}
			out[sale.ProductID] = t
			days[sale.ProductID] = make(map[time.Time]bool)
		}
		t.TotalQuantity += sale.Quantity
		days[sale.ProductID][d] = true
	}
	for id, t := range out {
		t.SaleDays = len(days[id])
	}
	return out
}

func (s *Store) GetSalesTotals(ctx context.Context, productID int64, r domain.DateRange) (domain.SalesTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("GetSalesTotals")

	if t, ok := s.totals(r)[productID]; ok {
		return *t, nil
	}
	return domain.SalesTotals{ProductID: productID}, nil
}

func (s *Store) ListSalesTotals(ctx context.Context, r domain.DateRange) ([]domain.SalesTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListSalesTotals")

	var rows []domain.SalesTotals
	for _, t := range s.totals(r) {
		rows = append(rows, *t)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })

	return rows, nil
}

func (s *Store) ListActiveEvents(ctx context.Context, start, end time.Time) ([]domain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListActiveEvents")

	var events []domain.EventRecord
	for _, e := range s.events {
		if e.IsActive && e.Overlaps(start, end) {
			events = append(events, e)
		}
	}

	return events, nil
}

func (s *Store) CreateJobRun(ctx context.Context, run *domain.JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRunID++
	run.ID = s.nextRunID
	s.jobRuns = append(s.jobRuns, *run)

	return nil
}

func (s *Store) UpdateJobRun(ctx context.Context, run *domain.JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobRuns {
		if s.jobRuns[i].ID == run.ID {
			s.jobRuns[i] = *run
			return nil
		}
	}

	return fmt.Errorf("job run %d not found", run.ID)
}

func (s *Store) GetJobRunByDate(ctx context.Context, jobName string, date time.Time) (*domain.JobRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.jobRuns) - 1; i >= 0; i-- {
		run := s.jobRuns[i]
		if run.JobName == jobName && domain.DateOf(run.Date).Equal(domain.DateOf(date)) {
			return &run, nil
		}
	}

	return nil, nil
}

func (s *Store) ListRecentJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []domain.JobRun
	for i := len(s.jobRuns) - 1; i >= 0 && (limit <= 0 || len(runs) < limit); i-- {
		if s.jobRuns[i].JobName == jobName {
			runs = append(runs, s.jobRuns[i])
		}
	}

	return runs, nil
}
