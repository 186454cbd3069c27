package forecast

import (
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// ProductHistory is everything the engine needs to forecast one product. Series must
// cover the ranges returned by Engine.HistoryRanges; extra days are ignored.
type ProductHistory struct {
	Product domain.ProductInventory
	Series  []domain.DailySales
	Events  []domain.EventRecord
}

// Engine computes per-product forecasts. It holds no state besides its settings and
// is shared by the single-product and batch paths.
type Engine struct {
	yoyWindowDays int
}

// NewEngine creates an engine with the given YoY window width (0 = default 14 days).
func NewEngine(yoyWindowDays int) *Engine {
	if yoyWindowDays <= 0 {
		yoyWindowDays = DefaultYoYWindowDays
	}

	return &Engine{yoyWindowDays: yoyWindowDays}
}

// Normalize fills option defaults: today for ForecastDate and 30 days of lookback.
func (e *Engine) Normalize(opts domain.ForecastOptions, now time.Time) domain.ForecastOptions {
	if opts.ForecastDate.IsZero() {
		opts.ForecastDate = now
	}
	opts.ForecastDate = domain.DateOf(opts.ForecastDate)
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}

	return opts
}

// HistoryRanges lists the day ranges a forecast reads: the lookback window, last
// year's comparison window and this year's comparison window.
func (e *Engine) HistoryRanges(opts domain.ForecastOptions) []domain.DateRange {
	lastYear, thisYear := YoYWindows(opts.ForecastDate, e.yoyWindowDays)

	return []domain.DateRange{
		LookbackWindow(opts.ForecastDate, opts.LookbackDays),
		lastYear,
		thisYear,
	}
}

// EventRange is the span of days over which events must be loaded.
func (e *Engine) EventRange(opts domain.ForecastOptions) domain.DateRange {
	window := LookbackWindow(opts.ForecastDate, opts.LookbackDays)

	return domain.DateRange{Start: window.Start, End: opts.ForecastDate}
}

// Compute produces the forecast for one product. opts must already be normalized.
func (e *Engine) Compute(h ProductHistory, opts domain.ForecastOptions) (*domain.ForecastResult, error) {
	inv := h.Product.InventoryRecord
	if inv.CurrentStock < 0 {
		return nil, fmt.Errorf("product %d has negative stock %d: %w", h.Product.ID, inv.CurrentStock, domain.ErrInvalidInventory)
	}

	fd := domain.DateOf(opts.ForecastDate)
	product := h.Product.Product

	// 1. Velocity over the lookback window
	velocity := CalculateVelocity(h.Series, fd, opts.LookbackDays)

	// 2. Calendar seasonality
	seasonality := SeasonalityFactor(fd, product.Category)

	// 3. Year-over-year growth
	yoy := CompareYoY(h.Series, fd, e.yoyWindowDays)

	// 4. Events covering the forecast date
	active := ActiveEvents(h.Events, product, fd)
	eventAdj := 1.0
	if opts.EventsIncluded() {
		eventAdj = EventAdjustment(active)
	}

	combined := Combine(CombineInput{
		WMABaseline:       velocity.WMABaseline,
		SeasonalityFactor: seasonality,
		YoYFactor:         yoy.Factor,
		EventAdjustment:   eventAdj,
		CurrentStock:      inv.CurrentStock,
		ReorderLevel:      inv.ReorderLevel,
		CleanDataPoints:   velocity.CleanDataPoints,
		HasYoYData:        yoy.HasData,
	})

	// 5. Stock health against forecast demand
	status, daysOfStock := ClassifyStock(inv.CurrentStock, float64(combined.DailyUnits))

	summaries := make([]domain.ActiveEvent, 0, len(active))
	for _, ev := range active {
		summaries = append(summaries, ev.Summary())
	}

	return &domain.ForecastResult{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Barcode:      product.Barcode,
		Brand:        product.Brand,
		Category:     product.Category,
		ForecastDate: fd,

		ForecastedDailyUnits:  combined.DailyUnits,
		ForecastedWeeklyUnits: combined.WeeklyUnits,
		SuggestedReorderQty:   combined.SuggestedReorderQty,
		Confidence:            combined.Confidence,

		DataPoints:      velocity.DataPoints,
		CleanDataPoints: velocity.CleanDataPoints,

		SeasonalityFactor: seasonality,
		EventAdjustment:   eventAdj,
		ActiveEvents:      summaries,
		YoYFactor:         combined.AppliedYoYFactor,
		HasYoYData:        yoy.HasData,

		AvgDailyVelocity:      velocity.AvgDailyVelocity,
		CleanAvgDailyVelocity: velocity.CleanAvgDailyVelocity,
		WMABaseline:           velocity.WMABaseline,
		Velocity7Day:          velocity.Velocity7Day,
		VelocityDivisor:       velocity.Divisor,
		Trend:                 velocity.Trend,

		CurrentStock: inv.CurrentStock,
		ReorderLevel: inv.ReorderLevel,
		DaysOfStock:  daysOfStock,
		StockStatus:  status,
	}, nil
}
