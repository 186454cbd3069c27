package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// SalesHistoryReader produces a product's daily sales series. Each requested range
// is read from materialized aggregates, or derived from raw transactions when the
// range has none.
type SalesHistoryReader struct {
	aggregates repository.AggregateRepository
	sales      repository.SalesRepository
	events     *EventCatalog
	loc        *time.Location
}

func NewSalesHistoryReader(aggregates repository.AggregateRepository, sales repository.SalesRepository, events *EventCatalog, loc *time.Location) *SalesHistoryReader {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesHistoryReader{aggregates: aggregates, sales: sales, events: events, loc: loc}
}

// Read returns the series for the union of ranges, most recent first. Aggregated
// days win over derived ones where ranges overlap.
func (r *SalesHistoryReader) Read(ctx context.Context, product domain.Product, ranges ...domain.DateRange) ([]domain.DailySales, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	var parts [][]domain.DailySales
	var missing []domain.DateRange
	for _, dr := range ranges {
		rows, err := r.aggregates.GetAggregates(ctx, product.ID, dr)
		if err != nil {
			return nil, fmt.Errorf("error reading aggregates for product %d: %w", product.ID, err)
		}
		if len(rows) == 0 {
			missing = append(missing, dr)
			continue
		}
		parts = append(parts, forecast.AggregatesToSeries(rows))
	}

	if len(missing) > 0 {
		derived, err := r.derive(ctx, product, missing)
		if err != nil {
			return nil, err
		}
		parts = append(parts, derived)
	}

	return forecast.MergeSeries(parts...), nil
}

func (r *SalesHistoryReader) derive(ctx context.Context, product domain.Product, ranges []domain.DateRange) ([]domain.DailySales, error) {
	log.Debug().Int64("product_id", product.ID).Int("ranges", len(ranges)).Msg("history: no aggregates, deriving from transactions")

	events, err := r.events.Overlapping(ctx, spanOf(ranges))
	if err != nil {
		return nil, err
	}

	var lines []domain.SaleLine
	for _, dr := range mergeRanges(ranges) {
		part, err := r.sales.GetSaleLines(ctx, product.ID, dr)
		if err != nil {
			return nil, fmt.Errorf("error reading sale lines for product %d: %w", product.ID, err)
		}
		lines = append(lines, part...)
	}

	return forecast.DeriveDailySales(lines, product, events, r.loc), nil
}

// mergeRanges collapses overlapping or adjacent ranges so no day is read twice
func mergeRanges(ranges []domain.DateRange) []domain.DateRange {
	sorted := make([]domain.DateRange, 0, len(ranges))
	for _, dr := range ranges {
		sorted = append(sorted, domain.DateRange{Start: domain.DateOf(dr.Start), End: domain.DateOf(dr.End)})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []domain.DateRange{sorted[0]}
	for _, dr := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !dr.Start.After(domain.AddDays(last.End, 1)) {
			if dr.End.After(last.End) {
				last.End = dr.End
			}
			continue
		}
		merged = append(merged, dr)
	}
	return merged
}

func spanOf(ranges []domain.DateRange) domain.DateRange {
	span := domain.DateRange{Start: domain.DateOf(ranges[0].Start), End: domain.DateOf(ranges[0].End)}
	for _, dr := range ranges[1:] {
		if s := domain.DateOf(dr.Start); s.Before(span.Start) {
			span.Start = s
		}
		if e := domain.DateOf(dr.End); e.After(span.End) {
			span.End = e
		}
	}
	return span
}
