package forecast

import (
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	// DefaultYoYWindowDays is the width of the year-over-year comparison windows
	DefaultYoYWindowDays = 14

	// MaxYoYFactor caps organic growth applied to a forecast
	MaxYoYFactor = 1.5

	minYoYCleanDays = 5
)

// YoYComparison is the outcome of comparing this year's demand with last year's
type YoYComparison struct {
	Factor       float64
	HasData      bool
	LastYearAvg  float64
	ThisYearAvg  float64
	LastYearDays int
	ThisYearDays int
}

// YoYWindows returns last year's window centered on the same calendar date and this
// year's window of equal width ending on forecastDate.
func YoYWindows(forecastDate time.Time, windowDays int) (lastYear, thisYear domain.DateRange) {
	if windowDays <= 0 {
		windowDays = DefaultYoYWindowDays
	}
	half := windowDays / 2
	center := domain.DateOf(forecastDate).AddDate(-1, 0, 0)

	lastYear = domain.DateRange{
		Start: domain.AddDays(center, -half),
		End:   domain.AddDays(center, half),
	}
	thisYear = domain.DateRange{
		Start: domain.AddDays(forecastDate, -2*half),
		End:   domain.DateOf(forecastDate),
	}

	return lastYear, thisYear
}

// CompareYoY derives the growth factor from a series covering both windows. Each
// window must contain at least five clean days; otherwise the factor is neutral.
func CompareYoY(series []domain.DailySales, forecastDate time.Time, windowDays int) YoYComparison {
	lastYear, thisYear := YoYWindows(forecastDate, windowDays)

	lastAvg, lastDays := cleanMean(series, lastYear)
	thisAvg, thisDays := cleanMean(series, thisYear)

	cmp := YoYComparison{
		Factor:       1.0,
		LastYearAvg:  lastAvg,
		ThisYearAvg:  thisAvg,
		LastYearDays: lastDays,
		ThisYearDays: thisDays,
	}

	if lastDays < minYoYCleanDays || thisDays < minYoYCleanDays || lastAvg <= 0 {
		return cmp
	}

	cmp.Factor = thisAvg / lastAvg
	cmp.HasData = true

	return cmp
}

func cleanMean(series []domain.DailySales, window domain.DateRange) (float64, int) {
	var total float64
	var n int
	for _, s := range series {
		if s.IsEventDay || !window.Contains(s.Date) {
			continue
		}
		total += float64(s.Quantity)
		n++
	}
	if n == 0 {
		return 0, 0
	}

	return total / float64(n), n
}
