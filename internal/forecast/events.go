package forecast

import (
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// ActiveEvents returns the active events whose scope includes the product and whose
// date range covers day, ordered by descending multiplier.
func ActiveEvents(events []domain.EventRecord, product domain.Product, day time.Time) []domain.EventRecord {
	var active []domain.EventRecord
	for _, e := range events {
		if !e.IsActive || !e.Covers(day) {
			continue
		}
		if !e.AppliesTo(product.ID, product.Brand, product.Category) {
			continue
		}
		active = append(active, e)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Multiplier != active[j].Multiplier {
			return active[i].Multiplier > active[j].Multiplier
		}
		return active[i].ID < active[j].ID
	})

	return active
}

// EventAdjustment is the strongest single multiplier among active events, 1.0 when none.
// Overlapping events never stack.
func EventAdjustment(active []domain.EventRecord) float64 {
	if len(active) == 0 {
		return 1.0
	}

	adj := active[0].Multiplier
	for _, e := range active[1:] {
		if e.Multiplier > adj {
			adj = e.Multiplier
		}
	}

	return adj
}

// StrongestEvent returns the event with the highest multiplier.
func StrongestEvent(active []domain.EventRecord) (domain.EventRecord, bool) {
	if len(active) == 0 {
		return domain.EventRecord{}, false
	}

	best := active[0]
	for _, e := range active[1:] {
		if e.Multiplier > best.Multiplier || (e.Multiplier == best.Multiplier && e.ID < best.ID) {
			best = e
		}
	}

	return best, true
}
