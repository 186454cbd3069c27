package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// flatSeries returns n days of qty units ending the day before fd.
func flatSeries(fd time.Time, n, qty int) []domain.DailySales {
	series := make([]domain.DailySales, 0, n)
	for i := 1; i <= n; i++ {
		series = append(series, domain.DailySales{Date: domain.AddDays(fd, -i), Quantity: qty})
	}
	return series
}

func TestSeasonalityFactor(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		category domain.Category
		want     float64
	}{
		{"tuesday in june", "2024-06-11", domain.CategorySnack, 1.0},
		{"november weekday", "2024-11-13", domain.CategorySnack, 1.2},
		{"december saturday compounds", "2024-12-07", domain.CategorySnack, 1.875},
		{"may sunday beverage", "2024-05-05", domain.CategorySoda, 1.75},
		{"may sunday non beverage", "2024-05-05", domain.CategoryDairy, 1.25},
		{"april weekday case", "2024-04-10", domain.CategorySoftdrinksCase, 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SeasonalityFactor(day(tt.date), tt.category), 1e-9)
		})
	}
}

func TestWMAWeightsSumToOne(t *testing.T) {
	for n := 1; n <= 30; n++ {
		weights := WMAWeights(n)
		require.Len(t, weights, n)

		var sum float64
		for i, w := range weights {
			sum += w
			if i > 0 {
				assert.Less(t, w, weights[i-1], "weights must decay")
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "n=%d", n)
	}

	assert.Nil(t, WMAWeights(0))
	assert.Len(t, WMAWeights(45), 30)
}

func TestWeightedMovingAverageOfConstantSeries(t *testing.T) {
	qty := make([]float64, 12)
	for i := range qty {
		qty[i] = 7
	}
	assert.InDelta(t, 7.0, WeightedMovingAverage(qty), 1e-9)
	assert.Equal(t, 0.0, WeightedMovingAverage(nil))
}

func TestVelocityDivisor(t *testing.T) {
	assert.Equal(t, 30, VelocityDivisor(0))
	assert.Equal(t, 14, VelocityDivisor(14))
	assert.Equal(t, 30, VelocityDivisor(30))
	assert.Equal(t, 30, VelocityDivisor(60))
}

func TestCalculateVelocityDividesByCalendarDays(t *testing.T) {
	fd := day("2024-06-11")

	spread := flatSeries(fd, 30, 1)
	lumped := []domain.DailySales{{Date: day("2024-06-01"), Quantity: 30}}

	a := CalculateVelocity(spread, fd, 30)
	b := CalculateVelocity(lumped, fd, 30)

	assert.InDelta(t, 1.0, a.AvgDailyVelocity, 1e-9)
	assert.InDelta(t, a.AvgDailyVelocity, b.AvgDailyVelocity, 1e-9)
	assert.Equal(t, 30, a.DataPoints)
	assert.Equal(t, 1, b.DataPoints)
}

func TestCalculateVelocityExcludesEventDaysFromBaseline(t *testing.T) {
	fd := day("2024-06-11")
	series := flatSeries(fd, 30, 10)
	series[3].IsEventDay = true
	series[3].Quantity = 40
	series[10].IsEventDay = true
	series[10].Quantity = 40
	// outside the window
	series = append(series, domain.DailySales{Date: fd, Quantity: 1000})

	stats := CalculateVelocity(series, fd, 30)

	assert.Equal(t, 30, stats.DataPoints)
	assert.Equal(t, 28, stats.CleanDataPoints)
	assert.Equal(t, 30, stats.Divisor)
	assert.InDelta(t, 12.0, stats.AvgDailyVelocity, 1e-9)
	assert.InDelta(t, 280.0/30, stats.CleanAvgDailyVelocity, 1e-9)
	assert.InDelta(t, 10.0, stats.WMABaseline, 1e-9)
}

func TestCalculateVelocityWithoutCleanDaysFallsBackToAverage(t *testing.T) {
	fd := day("2024-06-11")
	series := flatSeries(fd, 6, 5)
	for i := range series {
		series[i].IsEventDay = true
	}

	stats := CalculateVelocity(series, fd, 30)

	assert.Equal(t, 0, stats.CleanDataPoints)
	assert.InDelta(t, 1.0, stats.AvgDailyVelocity, 1e-9)
	assert.InDelta(t, stats.AvgDailyVelocity, stats.WMABaseline, 1e-9)
}

func TestCalculateVelocityTrend(t *testing.T) {
	fd := day("2024-06-11")
	series := flatSeries(fd, 30, 10)
	for i := 0; i < 7; i++ {
		series[i].Quantity = 20
	}

	stats := CalculateVelocity(series, fd, 30)
	assert.Equal(t, domain.TrendUp, stats.Trend)
	assert.InDelta(t, 20.0, stats.Velocity7Day, 1e-9)

	for i := 0; i < 7; i++ {
		series[i].Quantity = 2
	}
	assert.Equal(t, domain.TrendDown, CalculateVelocity(series, fd, 30).Trend)

	assert.Equal(t, domain.TrendStable, CalculateVelocity(flatSeries(fd, 30, 10), fd, 30).Trend)
}

func TestCalculateVelocityTrendLongLookback(t *testing.T) {
	fd := day("2024-06-11")

	stats := CalculateVelocity(flatSeries(fd, 60, 10), fd, 60)
	assert.Equal(t, 30, stats.Divisor)
	assert.InDelta(t, 10.0, stats.Velocity7Day, 1e-9)
	assert.Equal(t, domain.TrendStable, stats.Trend)

	// 40 quiet days then 20 selling days: prior mean is 10*13/53
	series := flatSeries(fd, 20, 10)
	assert.Equal(t, domain.TrendUp, CalculateVelocity(series, fd, 60).Trend)
}

func TestCalculateVelocityTrendIgnoresEventDays(t *testing.T) {
	fd := day("2024-06-11")
	series := flatSeries(fd, 30, 10)
	for i := 0; i < 7; i++ {
		series[i].Quantity = 40
		series[i].IsEventDay = true
	}

	stats := CalculateVelocity(series, fd, 30)
	assert.InDelta(t, 40.0, stats.Velocity7Day, 1e-9)
	assert.Equal(t, domain.TrendStable, stats.Trend, "a promo-only week carries no clean evidence")

	// promo covers part of the week; the clean days still sell at baseline
	for i := 3; i < 7; i++ {
		series[i].Quantity = 10
		series[i].IsEventDay = false
	}
	assert.Equal(t, domain.TrendStable, CalculateVelocity(series, fd, 30).Trend)

	// a promo in the prior window does not drag the baseline up
	series = flatSeries(fd, 30, 10)
	for i := 10; i < 17; i++ {
		series[i].Quantity = 50
		series[i].IsEventDay = true
	}
	assert.Equal(t, domain.TrendStable, CalculateVelocity(series, fd, 30).Trend)
}

func TestCompareYoY(t *testing.T) {
	fd := day("2024-06-11")

	var series []domain.DailySales
	for d := day("2023-06-04"); !d.After(day("2023-06-18")); d = domain.AddDays(d, 1) {
		series = append(series, domain.DailySales{Date: d, Quantity: 10})
	}
	for d := day("2024-05-28"); !d.After(fd); d = domain.AddDays(d, 1) {
		series = append(series, domain.DailySales{Date: d, Quantity: 15})
	}

	cmp := CompareYoY(series, fd, 0)
	assert.True(t, cmp.HasData)
	assert.InDelta(t, 1.5, cmp.Factor, 1e-9)
	assert.Equal(t, 15, cmp.LastYearDays)
	assert.Equal(t, 15, cmp.ThisYearDays)
}

func TestCompareYoYNeedsFiveCleanDaysPerWindow(t *testing.T) {
	fd := day("2024-06-11")

	series := []domain.DailySales{
		{Date: day("2023-06-10"), Quantity: 10},
		{Date: day("2023-06-11"), Quantity: 10},
		{Date: day("2023-06-12"), Quantity: 10},
		{Date: day("2023-06-13"), Quantity: 10},
		{Date: day("2023-06-14"), Quantity: 10, IsEventDay: true},
	}
	series = append(series, flatSeries(fd, 10, 20)...)

	cmp := CompareYoY(series, fd, 14)
	assert.False(t, cmp.HasData)
	assert.Equal(t, 1.0, cmp.Factor)
	assert.Equal(t, 4, cmp.LastYearDays)
}

func TestCompareYoYZeroLastYearIsNoData(t *testing.T) {
	fd := day("2024-06-11")

	var series []domain.DailySales
	for d := day("2023-06-04"); !d.After(day("2023-06-18")); d = domain.AddDays(d, 1) {
		series = append(series, domain.DailySales{Date: d, Quantity: 0})
	}
	series = append(series, flatSeries(fd, 10, 20)...)

	cmp := CompareYoY(series, fd, 14)
	assert.False(t, cmp.HasData)
	assert.Equal(t, 1.0, cmp.Factor)
}

func TestActiveEventsAndAdjustment(t *testing.T) {
	brand := "Indomie"
	other := "Sedaap"
	pid := int64(3)
	fd := day("2024-06-11")

	events := []domain.EventRecord{
		{ID: 1, Name: "Holiday", Source: domain.EventSourceHoliday, StartDate: day("2024-06-10"), EndDate: day("2024-06-12"), Multiplier: 1.3, IsActive: true},
		{ID: 2, Name: "Campaign", Source: domain.EventSourceManufacturerCampaign, StartDate: day("2024-06-01"), EndDate: day("2024-06-30"), Multiplier: 1.8, Brand: &brand, IsActive: true},
		{ID: 3, Name: "Other brand", Source: domain.EventSourceManufacturerCampaign, StartDate: day("2024-06-01"), EndDate: day("2024-06-30"), Multiplier: 3.0, Brand: &other, IsActive: true},
		{ID: 4, Name: "Inactive", Source: domain.EventSourceStoreDiscount, StartDate: day("2024-06-01"), EndDate: day("2024-06-30"), Multiplier: 2.5, ProductID: &pid},
		{ID: 5, Name: "Expired", Source: domain.EventSourceStoreDiscount, StartDate: day("2024-06-01"), EndDate: day("2024-06-10"), Multiplier: 2.5, ProductID: &pid, IsActive: true},
	}
	product := domain.Product{ID: pid, Brand: "indomie", Category: domain.CategoryInstantNoodles}

	active := ActiveEvents(events, product, fd)
	require.Len(t, active, 2)
	assert.Equal(t, int64(2), active[0].ID)
	assert.Equal(t, int64(1), active[1].ID)

	// overlapping events never stack
	assert.Equal(t, 1.8, EventAdjustment(active))
	assert.Equal(t, 1.0, EventAdjustment(nil))

	best, ok := StrongestEvent(active)
	assert.True(t, ok)
	assert.Equal(t, domain.EventSourceManufacturerCampaign, best.Source)
}

func TestDeriveDailySales(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	brand := "Indomie"
	product := domain.Product{ID: 3, Brand: "Indomie", Category: domain.CategoryInstantNoodles}

	lines := []domain.SaleLine{
		{ProductID: 3, CompletedAt: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), Quantity: 2},
		{ProductID: 3, CompletedAt: time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC), Quantity: 3},
		{ProductID: 3, CompletedAt: time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC), Quantity: 4},
	}
	events := []domain.EventRecord{
		{ID: 1, Source: domain.EventSourceHoliday, StartDate: day("2024-06-11"), EndDate: day("2024-06-11"), Multiplier: 1.3, IsActive: true},
		{ID: 2, Source: domain.EventSourceManufacturerCampaign, StartDate: day("2024-06-11"), EndDate: day("2024-06-20"), Multiplier: 1.8, Brand: &brand, IsActive: true},
	}

	series := DeriveDailySales(lines, product, events, loc)

	require.Len(t, series, 2)
	assert.Equal(t, day("2024-06-11"), series[0].Date)
	assert.Equal(t, 7, series[0].Quantity)
	assert.True(t, series[0].IsEventDay)
	assert.Equal(t, domain.EventSourceManufacturerCampaign, series[0].EventSource)
	require.NotNil(t, series[0].EventID)
	assert.Equal(t, int64(2), *series[0].EventID)

	assert.Equal(t, day("2024-06-10"), series[1].Date)
	assert.Equal(t, 2, series[1].Quantity)
	assert.False(t, series[1].IsEventDay)
	assert.Nil(t, series[1].EventID)
}

func TestCombineCapsYoY(t *testing.T) {
	out := Combine(CombineInput{
		WMABaseline:       10,
		SeasonalityFactor: 1,
		YoYFactor:         2.0,
		EventAdjustment:   1.2,
		CurrentStock:      50,
		ReorderLevel:      10,
		CleanDataPoints:   25,
		HasYoYData:        true,
	})

	assert.Equal(t, 1.5, out.AppliedYoYFactor)
	assert.Equal(t, 18, out.DailyUnits)
	assert.Equal(t, 126, out.WeeklyUnits)
	assert.Equal(t, 86, out.SuggestedReorderQty)
	assert.Equal(t, domain.ConfidenceHigh, out.Confidence)
}

func TestSuggestReorderQtyBounds(t *testing.T) {
	tests := []struct {
		name                  string
		daily, stock, reorder int
		want                  int
	}{
		{"dead stock never reorders", 0, 0, 50, 0},
		{"overstocked is zero", 5, 1000, 10, 0},
		{"capped at 14 days", 1, 0, 100, 14},
		{"target minus stock", 10, 50, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestReorderQty(tt.daily, tt.stock, tt.reorder)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, int(math.Ceil(float64(tt.daily)*14)))
		})
	}
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, domain.ConfidenceHigh, ConfidenceFor(21, true))
	assert.Equal(t, domain.ConfidenceMedium, ConfidenceFor(21, false))
	assert.Equal(t, domain.ConfidenceMedium, ConfidenceFor(14, true))
	assert.Equal(t, domain.ConfidenceLow, ConfidenceFor(13, true))
	assert.Equal(t, domain.ConfidenceLow, ConfidenceFor(0, false))
}

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		velocity float64
		status   domain.StockStatus
		days     int
	}{
		{"empty shelf", 0, 5, domain.StockOutOfStock, 0},
		{"negative stock", -2, 5, domain.StockOutOfStock, 0},
		{"no velocity", 50, 0.05, domain.StockDead, DeadStockDays},
		{"fast mover", 50, 30, domain.StockCritical, 1},
		{"two days exactly", 10, 5, domain.StockCritical, 2},
		{"four days", 20, 5, domain.StockLow, 4},
		{"seven days exactly", 35, 5, domain.StockLow, 7},
		{"slow mover", 50, 5, domain.StockHealthy, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, days := ClassifyStock(tt.stock, tt.velocity)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.days, days)
		})
	}
}

func TestDynamicReorderPoint(t *testing.T) {
	t.Run("manual level when auto reorder is off", func(t *testing.T) {
		r := DynamicReorderPoint(domain.InventoryRecord{ProductID: 1, ReorderLevel: 15, LeadTimeDays: 5},
			domain.SalesTotals{ProductID: 1, TotalQuantity: 300, SaleDays: 30})
		assert.Equal(t, 15, r.ReorderPoint)
		assert.False(t, r.IsAutoCalculated)
	})

	t.Run("velocity times lead time plus safety", func(t *testing.T) {
		r := DynamicReorderPoint(domain.InventoryRecord{ProductID: 1, ReorderLevel: 15, LeadTimeDays: 5, AutoReorder: true},
			domain.SalesTotals{ProductID: 1, TotalQuantity: 75, SaleDays: 5})
		assert.True(t, r.IsAutoCalculated)
		assert.Equal(t, 21, r.ReorderPoint)
		assert.Equal(t, 8, r.Breakdown.SafetyBuffer)
		assert.InDelta(t, 2.5, r.Breakdown.DailyVelocity, 1e-9)
		assert.Equal(t, "ceil(2.50/day × 5d + 8) = 21", r.Formula)
	})

	t.Run("zero velocity is zero", func(t *testing.T) {
		r := DynamicReorderPoint(domain.InventoryRecord{ProductID: 1, ReorderLevel: 15, LeadTimeDays: 5, AutoReorder: true},
			domain.SalesTotals{ProductID: 1})
		assert.Equal(t, 0, r.ReorderPoint)
		assert.True(t, r.IsAutoCalculated)
	})

	t.Run("missing lead time defaults to three days", func(t *testing.T) {
		r := DynamicReorderPoint(domain.InventoryRecord{ProductID: 1, AutoReorder: true},
			domain.SalesTotals{ProductID: 1, TotalQuantity: 75, SaleDays: 30})
		assert.Equal(t, 3, r.Breakdown.LeadTimeDays)
		assert.Equal(t, 16, r.ReorderPoint)
	})
}

func snackOnShelf(stock, reorder int) domain.ProductInventory {
	return domain.ProductInventory{
		Product: domain.Product{ID: 10, Name: "Potato chips", Barcode: "899100", Brand: "Chitato", Category: domain.CategorySnack},
		InventoryRecord: domain.InventoryRecord{
			ProductID:    10,
			CurrentStock: stock,
			ReorderLevel: reorder,
			LeadTimeDays: 2,
		},
	}
}

func TestEngineComputeTuesdayInJune(t *testing.T) {
	e := NewEngine(0)
	opts := e.Normalize(domain.ForecastOptions{ForecastDate: day("2024-06-11")}, time.Now())
	fd := opts.ForecastDate

	res, err := e.Compute(ProductHistory{
		Product: snackOnShelf(50, 20),
		Series:  flatSeries(fd, 30, 10),
	}, opts)
	require.NoError(t, err)

	assert.Equal(t, 10, res.ForecastedDailyUnits)
	assert.Equal(t, 70, res.ForecastedWeeklyUnits)
	assert.Equal(t, 40, res.SuggestedReorderQty)
	assert.Equal(t, domain.ConfidenceMedium, res.Confidence)
	assert.Equal(t, 1.0, res.SeasonalityFactor)
	assert.Equal(t, 1.0, res.YoYFactor)
	assert.False(t, res.HasYoYData)
	assert.Equal(t, domain.StockLow, res.StockStatus)
	assert.Equal(t, 5, res.DaysOfStock)
	assert.Equal(t, 30, res.VelocityDivisor)
	assert.Empty(t, res.ActiveEvents)
}

func TestEngineComputeAppliesStrongestEvent(t *testing.T) {
	e := NewEngine(14)
	fd := day("2024-06-11")
	opts := e.Normalize(domain.ForecastOptions{ForecastDate: fd}, time.Now())

	brand := "Chitato"
	other := "Lays"
	events := []domain.EventRecord{
		{ID: 1, Name: "Holiday", Source: domain.EventSourceHoliday, StartDate: fd, EndDate: fd, Multiplier: 1.2, IsActive: true},
		{ID: 2, Name: "Chitato week", Source: domain.EventSourceManufacturerCampaign, StartDate: domain.AddDays(fd, -2), EndDate: domain.AddDays(fd, 5), Multiplier: 1.5, Brand: &brand, IsActive: true},
		{ID: 3, Name: "Lays week", Source: domain.EventSourceManufacturerCampaign, StartDate: fd, EndDate: fd, Multiplier: 3.0, Brand: &other, IsActive: true},
	}
	h := ProductHistory{Product: snackOnShelf(100, 0), Series: flatSeries(fd, 30, 10), Events: events}

	res, err := e.Compute(h, opts)
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.EventAdjustment)
	assert.Equal(t, 15, res.ForecastedDailyUnits)
	require.Len(t, res.ActiveEvents, 2)
	assert.Equal(t, "Chitato week", res.ActiveEvents[0].Name)

	off := false
	opts.IncludeEventAdjustment = &off
	res, err = e.Compute(h, opts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.EventAdjustment)
	assert.Equal(t, 10, res.ForecastedDailyUnits)
}

func TestEngineComputeRejectsNegativeStock(t *testing.T) {
	e := NewEngine(0)
	opts := e.Normalize(domain.ForecastOptions{}, day("2024-06-11"))

	_, err := e.Compute(ProductHistory{Product: snackOnShelf(-1, 0)}, opts)
	assert.ErrorIs(t, err, domain.ErrInvalidInventory)
}

func TestEngineNormalizeAndRanges(t *testing.T) {
	e := NewEngine(0)
	now := time.Date(2024, 6, 11, 15, 30, 0, 0, time.UTC)
	opts := e.Normalize(domain.ForecastOptions{}, now)

	assert.Equal(t, day("2024-06-11"), opts.ForecastDate)
	assert.Equal(t, 30, opts.LookbackDays)
	assert.True(t, opts.EventsIncluded())

	ranges := e.HistoryRanges(opts)
	require.Len(t, ranges, 3)
	assert.Equal(t, day("2024-05-12"), ranges[0].Start)
	assert.Equal(t, day("2024-06-10"), ranges[0].End)
	assert.Equal(t, day("2023-06-04"), ranges[1].Start)
	assert.Equal(t, day("2023-06-18"), ranges[1].End)
	assert.Equal(t, day("2024-05-28"), ranges[2].Start)

	er := e.EventRange(opts)
	assert.Equal(t, day("2024-05-12"), er.Start)
	assert.Equal(t, day("2024-06-11"), er.End)
}
