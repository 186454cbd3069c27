package forecast

import (
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// AggregatesToSeries converts aggregate rows to a daily series, most recent first.
func AggregatesToSeries(rows []domain.DailySalesAggregate) []domain.DailySales {
	series := make([]domain.DailySales, 0, len(rows))
	for _, r := range rows {
		series = append(series, domain.DailySales{
			Date:        domain.DateOf(r.Date),
			Quantity:    r.QuantitySold,
			IsEventDay:  r.IsEventDay,
			EventSource: r.EventSource,
			EventID:     r.EventID,
		})
	}
	sortNewestFirst(series)

	return series
}

// DeriveDailySales groups raw sale lines by the calendar day they completed on (in
// loc), sums quantity per day and tags days covered by an event scoped to the
// product. The result is ordered most recent first.
func DeriveDailySales(lines []domain.SaleLine, product domain.Product, events []domain.EventRecord, loc *time.Location) []domain.DailySales {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[time.Time]int)
	for _, l := range lines {
		d := domain.DateOf(l.CompletedAt.In(loc))
		byDay[d] += l.Quantity
	}

	series := make([]domain.DailySales, 0, len(byDay))
	for d, qty := range byDay {
		s := domain.DailySales{Date: d, Quantity: qty}
		if e, ok := StrongestEvent(ActiveEvents(events, product, d)); ok {
			s.IsEventDay = true
			s.EventSource = e.Source
			id := e.ID
			s.EventID = &id
		}
		series = append(series, s)
	}
	sortNewestFirst(series)

	return series
}

// MergeSeries joins series into one, most recent first. When a day appears more
// than once the entry from the earliest series wins.
func MergeSeries(parts ...[]domain.DailySales) []domain.DailySales {
	seen := make(map[time.Time]struct{})
	var merged []domain.DailySales
	for _, part := range parts {
		for _, s := range part {
			d := domain.DateOf(s.Date)
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			merged = append(merged, s)
		}
	}
	sortNewestFirst(merged)

	return merged
}
