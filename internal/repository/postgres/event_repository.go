package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

type eventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) ListActiveEvents(ctx context.Context, start, end time.Time) ([]domain.EventRecord, error) {
	query := `
		SELECT
			id, name, source, start_date, end_date, multiplier::float8 AS multiplier,
			product_id, brand, category, is_active
		FROM events
		WHERE is_active
		  AND start_date <= $2::date
		  AND end_date >= $1::date
		ORDER BY start_date, id
	`

	var events []domain.EventRecord
	err := r.db.SelectContext(ctx, &events, query,
		start.Format(domain.DateLayout),
		end.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing active events: %w", err)
	}

	for i := range events {
		events[i].StartDate = domain.DateOf(events[i].StartDate)
		events[i].EndDate = domain.DateOf(events[i].EndDate)
	}

	return events, nil
}
