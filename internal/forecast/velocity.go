package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	// DefaultLookbackDays is the default velocity window ending the day before the forecast date
	DefaultLookbackDays = 30

	// MaxLookbackDays bounds caller-supplied windows
	MaxLookbackDays = 365

	// maxVelocityDivisor caps the calendar-day divisor used for average velocity
	maxVelocityDivisor = 30

	wmaWindow = 30
	wmaDecay  = 0.1

	trendWindowDays = 7
	trendThreshold  = 0.10
)

// VelocityStats holds the velocity figures derived from a sales window
type VelocityStats struct {
	DataPoints            int
	CleanDataPoints       int
	Divisor               int
	AvgDailyVelocity      float64
	CleanAvgDailyVelocity float64
	WMABaseline           float64
	Velocity7Day          float64
	Trend                 domain.Trend
}

// WMAWeights returns n exponentially decaying weights e^(-0.1*i), i=0 being the
// most recent day, normalized to sum to 1. n is clamped to [0, 30].
func WMAWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n > wmaWindow {
		n = wmaWindow
	}

	weights := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		weights[i] = math.Exp(-wmaDecay * float64(i))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	return weights
}

// WeightedMovingAverage applies WMAWeights to quantities ordered most recent first.
// Only the 30 most recent values are used.
func WeightedMovingAverage(quantities []float64) float64 {
	weights := WMAWeights(len(quantities))

	var wma float64
	for i, w := range weights {
		wma += w * quantities[i]
	}

	return wma
}

// VelocityDivisor is the calendar-day divisor for a lookback window.
func VelocityDivisor(lookbackDays int) int {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if lookbackDays > maxVelocityDivisor {
		return maxVelocityDivisor
	}

	return lookbackDays
}

// LookbackWindow returns the inclusive day range of the velocity window:
// lookbackDays calendar days ending the day before forecastDate.
func LookbackWindow(forecastDate time.Time, lookbackDays int) domain.DateRange {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	end := domain.AddDays(forecastDate, -1)

	return domain.DateRange{
		Start: domain.AddDays(end, -(lookbackDays - 1)),
		End:   end,
	}
}

// CalculateVelocity computes velocity figures for the window ending the day before
// forecastDate. Averages always divide by calendar days, never by days with sales.
func CalculateVelocity(series []domain.DailySales, forecastDate time.Time, lookbackDays int) VelocityStats {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	window := LookbackWindow(forecastDate, lookbackDays)
	divisor := VelocityDivisor(lookbackDays)

	days := make([]domain.DailySales, 0, len(series))
	for _, s := range series {
		if window.Contains(s.Date) {
			days = append(days, s)
		}
	}
	sortNewestFirst(days)

	stats := VelocityStats{
		DataPoints: len(days),
		Divisor:    divisor,
		Trend:      domain.TrendStable,
	}

	recentStart := domain.AddDays(window.End, -(trendWindowDays - 1))

	var total, cleanTotal, recentTotal float64
	var recentClean, priorClean float64
	recentEventDays, priorEventDays := 0, 0
	clean := make([]float64, 0, len(days))
	for _, d := range days {
		qty := float64(d.Quantity)
		recent := !domain.DateOf(d.Date).Before(recentStart)
		total += qty
		if recent {
			recentTotal += qty
		}
		if d.IsEventDay {
			if recent {
				recentEventDays++
			} else {
				priorEventDays++
			}
			continue
		}
		cleanTotal += qty
		clean = append(clean, qty)
		if recent {
			recentClean += qty
		} else {
			priorClean += qty
		}
	}

	stats.CleanDataPoints = len(clean)
	stats.AvgDailyVelocity = total / float64(divisor)
	stats.CleanAvgDailyVelocity = cleanTotal / float64(divisor)

	if len(clean) > 0 {
		stats.WMABaseline = WeightedMovingAverage(clean)
	} else {
		stats.WMABaseline = stats.AvgDailyVelocity
	}

	stats.Velocity7Day = recentTotal / trendWindowDays

	// clean means over calendar days; days without a row sold nothing
	recentDays := trendWindowDays - recentEventDays
	priorDays := lookbackDays - trendWindowDays - priorEventDays
	if recentDays > 0 && priorDays > 0 {
		stats.Trend = classifyTrend(recentClean/float64(recentDays), priorClean/float64(priorDays))
	}

	return stats
}

func classifyTrend(recent, prior float64) domain.Trend {
	switch {
	case prior == 0 && recent > 0:
		return domain.TrendUp
	case prior == 0:
		return domain.TrendStable
	case recent > prior*(1+trendThreshold):
		return domain.TrendUp
	case recent < prior*(1-trendThreshold):
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

func sortNewestFirst(days []domain.DailySales) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
}
