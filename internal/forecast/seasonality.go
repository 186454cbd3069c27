package forecast

import (
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	decemberMultiplier       = 1.5
	novemberMultiplier       = 1.2
	summerBeverageMultiplier = 1.4
	weekendMultiplier        = 1.25
)

// SeasonalityFactor returns the calendar multiplier for a category on a given day.
// Factors compound multiplicatively.
func SeasonalityFactor(date time.Time, category domain.Category) float64 {
	factor := 1.0

	switch date.Month() {
	case time.December:
		factor *= decemberMultiplier
	case time.November:
		factor *= novemberMultiplier
	case time.April, time.May:
		if category.IsBeverage() {
			factor *= summerBeverageMultiplier
		}
	}

	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		factor *= weekendMultiplier
	}

	return factor
}
