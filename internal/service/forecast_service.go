package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Repositories bundles the data access the forecasting services read from
type Repositories struct {
	Products   repository.ProductRepository
	Aggregates repository.AggregateRepository
	Sales      repository.SalesRepository
	Events     repository.EventRepository
}

type ForecastService struct {
	repos   Repositories
	cache   cache.ForecastCache
	engine  *forecast.Engine
	history *SalesHistoryReader
	events  *EventCatalog

	workers       int
	lookbackDays  int
	includeEvents bool
	loc           *time.Location
	now           func() time.Time
}

func NewForecastService(repos Repositories, cacheImpl cache.ForecastCache, cfg config.ForecastConfig, loc *time.Location) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if loc == nil {
		loc = time.UTC
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	events := NewEventCatalog(repos.Events)

	return &ForecastService{
		repos:         repos,
		cache:         cacheImpl,
		engine:        forecast.NewEngine(cfg.YoYWindowDays),
		history:       NewSalesHistoryReader(repos.Aggregates, repos.Sales, events, loc),
		events:        events,
		workers:       workers,
		lookbackDays:  cfg.LookbackDays,
		includeEvents: cfg.IncludeEvents,
		loc:           loc,
		now:           time.Now,
	}
}

// Events exposes the event catalog backing this service
func (s *ForecastService) Events() *EventCatalog {
	return s.events
}

// Today is the current calendar day in the store zone
func (s *ForecastService) Today() time.Time {
	return domain.DateOf(s.now().In(s.loc))
}

func (s *ForecastService) normalize(opts domain.ForecastOptions) domain.ForecastOptions {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = s.lookbackDays
	}
	if opts.IncludeEventAdjustment == nil {
		include := s.includeEvents
		opts.IncludeEventAdjustment = &include
	}
	return s.engine.Normalize(opts, s.Today())
}

// GetForecast forecasts a single product. Unknown ids yield domain.ErrProductNotFound.
func (s *ForecastService) GetForecast(ctx context.Context, productID int64, opts domain.ForecastOptions) (*domain.ForecastResult, error) {
	opts = s.normalize(opts)

	pi, err := s.repos.Products.GetProductInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	series, err := s.history.Read(ctx, pi.Product, s.engine.HistoryRanges(opts)...)
	if err != nil {
		return nil, err
	}

	events, err := s.events.Overlapping(ctx, s.engine.EventRange(opts))
	if err != nil {
		return nil, err
	}

	return s.engine.Compute(forecast.ProductHistory{
		Product: *pi,
		Series:  series,
		Events:  events,
	}, opts)
}

// GetAllProductForecasts forecasts every active product using three bulk reads and a
// parallel compute step. Products that fail are logged and omitted.
func (s *ForecastService) GetAllProductForecasts(ctx context.Context, opts domain.BatchForecastOptions) ([]domain.ForecastResult, error) {
	opts.ForecastOptions = s.normalize(opts.ForecastOptions)

	// 1. Products with inventory, read fresh even on a cache hit
	products, err := s.repos.Products.ListActiveProductInventories(ctx, opts.Categories)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.cache.GetBatch(ctx, opts); err != nil {
		log.Warn().Err(err).Msg("forecast: cache get batch failed")
	} else if ok {
		if results, ok := restock(cached, products); ok {
			return results, nil
		}
		log.Debug().Msg("forecast: cached batch is missing products, recomputing")
	}

	// 2. Aggregates for the lookback and YoY windows
	rows, err := s.repos.Aggregates.ListAggregates(ctx, s.engine.HistoryRanges(opts.ForecastOptions)...)
	if err != nil {
		return nil, err
	}

	// 3. Events overlapping the window
	events, err := s.events.Overlapping(ctx, s.engine.EventRange(opts.ForecastOptions))
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64][]domain.DailySalesAggregate)
	for _, r := range rows {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}

	computed := make([]*domain.ForecastResult, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range products {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			computed[i] = s.computeSafe(forecast.ProductHistory{
				Product: products[i],
				Series:  forecast.AggregatesToSeries(byProduct[products[i].Product.ID]),
				Events:  events,
			}, opts.ForecastOptions)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch forecast cancelled: %w", err)
	}

	results := make([]domain.ForecastResult, 0, len(products))
	for _, r := range computed {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ProductID < results[j].ProductID })

	log.Info().
		Int("products", len(products)).
		Int("forecasts", len(results)).
		Str("forecast_date", opts.ForecastDate.Format(domain.DateLayout)).
		Msg("forecast: batch completed")

	if err := s.cache.SetBatch(ctx, opts, results); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set batch failed")
	}

	return results, nil
}

// restock overlays current inventory on cached forecasts. It reports false when a
// product has no cached forecast, which means the cached batch predates it.
func restock(cached []domain.ForecastResult, products []domain.ProductInventory) ([]domain.ForecastResult, bool) {
	byID := make(map[int64]domain.ForecastResult, len(cached))
	for _, r := range cached {
		byID[r.ProductID] = r
	}

	results := make([]domain.ForecastResult, 0, len(products))
	for _, pi := range products {
		r, ok := byID[pi.Product.ID]
		if !ok {
			if pi.InventoryRecord.CurrentStock < 0 {
				// skipped when computed too
				continue
			}
			return nil, false
		}
		if err := forecast.ApplyInventory(&r, pi.InventoryRecord); err != nil {
			log.Error().Err(err).Int64("product_id", pi.Product.ID).Msg("forecast: compute failed, skipping product")
			continue
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ProductID < results[j].ProductID })

	return results, true
}

func (s *ForecastService) computeSafe(h forecast.ProductHistory, opts domain.ForecastOptions) (result *domain.ForecastResult) {
	productID := h.Product.Product.ID
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int64("product_id", productID).Interface("panic", r).Msg("forecast: compute panicked, skipping product")
			result = nil
		}
	}()

	result, err := s.engine.Compute(h, opts)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("forecast: compute failed, skipping product")
		return nil
	}
	return result
}

// GetReorderAlerts returns products needing attention, most urgent first. Ties are
// broken by fewer days of stock, then product id.
func (s *ForecastService) GetReorderAlerts(ctx context.Context, opts domain.BatchForecastOptions) ([]domain.ForecastResult, error) {
	all, err := s.GetAllProductForecasts(ctx, opts)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.ForecastResult, 0)
	for _, r := range all {
		if r.StockStatus.NeedsReorder() {
			alerts = append(alerts, r)
		}
	}
	SortAlerts(alerts)

	return alerts, nil
}

// SortAlerts orders OUT_OF_STOCK, CRITICAL, LOW
func SortAlerts(alerts []domain.ForecastResult) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.StockStatus.Urgency() != b.StockStatus.Urgency() {
			return a.StockStatus.Urgency() > b.StockStatus.Urgency()
		}
		if a.DaysOfStock != b.DaysOfStock {
			return a.DaysOfStock < b.DaysOfStock
		}
		return a.ProductID < b.ProductID
	})
}

// ropWindow is the trailing 30 completed days before today
func (s *ForecastService) ropWindow() domain.DateRange {
	end := domain.AddDays(s.Today(), -1)
	return domain.DateRange{Start: domain.AddDays(end, -(forecast.ROPWindowDays - 1)), End: end}
}

// GetDynamicReorderPoint computes the reorder trigger for one product
func (s *ForecastService) GetDynamicReorderPoint(ctx context.Context, productID int64) (*domain.DynamicROPResult, error) {
	pi, err := s.repos.Products.GetProductInventory(ctx, productID)
	if err != nil {
		return nil, err
	}

	totals, err := s.repos.Sales.GetSalesTotals(ctx, productID, s.ropWindow())
	if err != nil {
		return nil, err
	}

	result := forecast.DynamicReorderPoint(pi.InventoryRecord, totals)
	return &result, nil
}

// GetAllDynamicReorderPoints computes reorder triggers for every active product from
// two bulk reads.
func (s *ForecastService) GetAllDynamicReorderPoints(ctx context.Context) (map[int64]domain.DynamicROPResult, error) {
	products, err := s.repos.Products.ListActiveProductInventories(ctx, nil)
	if err != nil {
		return nil, err
	}

	totals, err := s.repos.Sales.ListSalesTotals(ctx, s.ropWindow())
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64]domain.SalesTotals, len(totals))
	for _, t := range totals {
		byProduct[t.ProductID] = t
	}

	results := make(map[int64]domain.DynamicROPResult, len(products))
	for _, pi := range products {
		t, ok := byProduct[pi.Product.ID]
		if !ok {
			t = domain.SalesTotals{ProductID: pi.Product.ID}
		}
		results[pi.Product.ID] = forecast.DynamicReorderPoint(pi.InventoryRecord, t)
	}

	return results, nil
}

// InvalidateCache drops cached batch forecasts
func (s *ForecastService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// GetActiveEvents lists the events applying to a product on day with their combined multiplier
func (s *ForecastService) GetActiveEvents(ctx context.Context, productID int64, day time.Time) ([]domain.ActiveEvent, float64, error) {
	if day.IsZero() {
		day = s.Today()
	}

	pi, err := s.repos.Products.GetProductInventory(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	active, adj, err := s.events.ActiveOn(ctx, pi.Product, domain.DateOf(day))
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]domain.ActiveEvent, 0, len(active))
	for _, e := range active {
		summaries = append(summaries, e.Summary())
	}

	return summaries, adj, nil
}
