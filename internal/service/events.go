package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
)

// EventCatalog answers which demand events apply to a product on a day
type EventCatalog struct {
	repo repository.EventRepository
}

func NewEventCatalog(repo repository.EventRepository) *EventCatalog {
	return &EventCatalog{repo: repo}
}

// Overlapping returns active events intersecting the range
func (c *EventCatalog) Overlapping(ctx context.Context, r domain.DateRange) ([]domain.EventRecord, error) {
	events, err := c.repo.ListActiveEvents(ctx, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	return events, nil
}

// ActiveOn returns the events scoped to product covering day and their combined
// multiplier (the strongest one, 1.0 when none).
func (c *EventCatalog) ActiveOn(ctx context.Context, product domain.Product, day time.Time) ([]domain.EventRecord, float64, error) {
	events, err := c.Overlapping(ctx, domain.DateRange{Start: day, End: day})
	if err != nil {
		return nil, 0, err
	}

	active := forecast.ActiveEvents(events, product, day)
	return active, forecast.EventAdjustment(active), nil
}
