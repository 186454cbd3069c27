package forecast

import (
	"math"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	bufferDays        = 7
	maxOrderCoverDays = 14
	deadStockVelocity = 0.1

	highConfidenceCleanDays   = 21
	mediumConfidenceCleanDays = 14
)

// CombineInput holds the factors that make up a forecast
type CombineInput struct {
	WMABaseline       float64
	SeasonalityFactor float64
	YoYFactor         float64
	EventAdjustment   float64
	CurrentStock      int
	ReorderLevel      int
	CleanDataPoints   int
	HasYoYData        bool
}

// Combined is the forecast and reorder recommendation derived from CombineInput
type Combined struct {
	DailyUnits          int
	WeeklyUnits         int
	SuggestedReorderQty int
	AppliedYoYFactor    float64
	Confidence          domain.Confidence
}

// Combine composes baseline, seasonality, capped YoY growth and event adjustment
// into a daily forecast, then derives a bounded reorder quantity.
func Combine(in CombineInput) Combined {
	out := Combined{}

	// 1. YoY growth is capped at 1.5x
	out.AppliedYoYFactor = math.Min(in.YoYFactor, MaxYoYFactor)

	// 2. Daily forecast = round(WMA × seasonality × YoY × event)
	daily := in.WMABaseline * in.SeasonalityFactor * out.AppliedYoYFactor * in.EventAdjustment
	out.DailyUnits = int(math.Round(math.Max(0, daily)))
	out.WeeklyUnits = out.DailyUnits * 7

	// 3. Reorder quantity toward a 7-day buffer plus the manual reorder level
	out.SuggestedReorderQty = SuggestReorderQty(out.DailyUnits, in.CurrentStock, in.ReorderLevel)

	// 4. Confidence tier
	out.Confidence = ConfidenceFor(in.CleanDataPoints, in.HasYoYData)

	return out
}

// SuggestReorderQty returns max(0, 7 days of forecast + reorderLevel - stock), zero for
// dead stock, and never more than 14 days of forecast supply.
func SuggestReorderQty(dailyUnits, currentStock, reorderLevel int) int {
	if float64(dailyUnits) < deadStockVelocity {
		return 0
	}

	targetStock := dailyUnits*bufferDays + reorderLevel
	qty := targetStock - currentStock
	if qty < 0 {
		qty = 0
	}

	maxQty := int(math.Ceil(float64(dailyUnits) * maxOrderCoverDays))
	if qty > maxQty {
		qty = maxQty
	}

	return qty
}

// ConfidenceFor tiers a forecast by clean history and YoY availability.
func ConfidenceFor(cleanDataPoints int, hasYoYData bool) domain.Confidence {
	switch {
	case cleanDataPoints >= highConfidenceCleanDays && hasYoYData:
		return domain.ConfidenceHigh
	case cleanDataPoints >= mediumConfidenceCleanDays:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
