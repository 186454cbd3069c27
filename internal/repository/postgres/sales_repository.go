package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const aggregateColumns = `
	product_id, sale_date, quantity_sold, revenue, cost, profit,
	transaction_count, is_event_day, event_id, COALESCE(event_source, '') AS event_source
`

type salesRepository struct {
	db  *DB
	loc *time.Location
}

// NewSalesRepository reads transactions and aggregates. Calendar days are taken in loc,
// the store's time zone.
func NewSalesRepository(db *DB, loc *time.Location) *salesRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &salesRepository{db: db, loc: loc}
}

// dayBounds converts an inclusive day range to [from, to) instants in the store zone
func (r *salesRepository) dayBounds(dr domain.DateRange) (time.Time, time.Time) {
	s, e := domain.DateOf(dr.Start), domain.DateOf(dr.End).AddDate(0, 0, 1)
	from := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, r.loc)
	to := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, r.loc)
	return from, to
}

func rangeClause(ranges []domain.DateRange, column string, argOffset int) (string, []interface{}) {
	conditions := make([]string, 0, len(ranges))
	args := make([]interface{}, 0, len(ranges)*2)
	for _, dr := range ranges {
		conditions = append(conditions, fmt.Sprintf("(%s BETWEEN $%d::date AND $%d::date)", column, argOffset+1, argOffset+2))
		args = append(args, dr.Start.Format(domain.DateLayout), dr.End.Format(domain.DateLayout))
		argOffset += 2
	}
	return "(" + strings.Join(conditions, " OR ") + ")", args
}

func (r *salesRepository) GetAggregates(ctx context.Context, productID int64, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	clause, args := rangeClause(ranges, "sale_date", 1)
	query := `
		SELECT ` + aggregateColumns + `
		FROM daily_sales_aggregates
		WHERE product_id = $1 AND ` + clause + `
		ORDER BY sale_date DESC
	`

	var rows []domain.DailySalesAggregate
	if err := r.db.SelectContext(ctx, &rows, query, append([]interface{}{productID}, args...)...); err != nil {
		return nil, fmt.Errorf("error getting aggregates: %w", err)
	}

	return rows, nil
}

func (r *salesRepository) ListAggregates(ctx context.Context, ranges ...domain.DateRange) ([]domain.DailySalesAggregate, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	clause, args := rangeClause(ranges, "sale_date", 0)
	query := `
		SELECT ` + aggregateColumns + `
		FROM daily_sales_aggregates
		WHERE ` + clause + `
		ORDER BY product_id, sale_date DESC
	`

	var rows []domain.DailySalesAggregate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error listing aggregates: %w", err)
	}

	return rows, nil
}

func (r *salesRepository) UpsertAggregate(ctx context.Context, agg domain.DailySalesAggregate) error {
	query := `
		INSERT INTO daily_sales_aggregates (
			product_id, sale_date, quantity_sold, revenue, cost, profit,
			transaction_count, is_event_day, event_id, event_source, updated_at
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NOW())
		ON CONFLICT (product_id, sale_date)
		DO UPDATE SET
			quantity_sold = EXCLUDED.quantity_sold,
			revenue = EXCLUDED.revenue,
			cost = EXCLUDED.cost,
			profit = EXCLUDED.profit,
			transaction_count = EXCLUDED.transaction_count,
			is_event_day = EXCLUDED.is_event_day,
			event_id = EXCLUDED.event_id,
			event_source = EXCLUDED.event_source,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		agg.ProductID,
		agg.Date.Format(domain.DateLayout),
		agg.QuantitySold,
		agg.Revenue,
		agg.Cost,
		agg.Profit,
		agg.TransactionCount,
		agg.IsEventDay,
		agg.EventID,
		string(agg.EventSource),
	)
	if err != nil {
		return fmt.Errorf("error upserting aggregate for product %d: %w", agg.ProductID, err)
	}

	return nil
}

func (r *salesRepository) GetSaleLines(ctx context.Context, productID int64, dr domain.DateRange) ([]domain.SaleLine, error) {
	from, to := r.dayBounds(dr)
	query := `
		SELECT
			ti.product_id,
			ti.transaction_id,
			t.completed_at,
			ti.quantity,
			ti.quantity * ti.unit_price AS revenue,
			ti.quantity * ti.unit_cost AS cost
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE ti.product_id = $1
		  AND t.status = 'COMPLETED'
		  AND t.completed_at >= $2 AND t.completed_at < $3
		ORDER BY t.completed_at DESC
	`

	var lines []domain.SaleLine
	if err := r.db.SelectContext(ctx, &lines, query, productID, from, to); err != nil {
		return nil, fmt.Errorf("error getting sale lines: %w", err)
	}

	return lines, nil
}

func (r *salesRepository) ListProductDaySales(ctx context.Context, day time.Time) ([]domain.ProductDaySales, error) {
	from, to := r.dayBounds(domain.DateRange{Start: day, End: day})
	query := `
		SELECT
			ti.product_id,
			p.brand,
			p.category,
			SUM(ti.quantity) AS quantity_sold,
			SUM(ti.quantity * ti.unit_price) AS revenue,
			SUM(ti.quantity * ti.unit_cost) AS cost,
			COUNT(DISTINCT ti.transaction_id) AS transaction_count
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		JOIN products p ON p.id = ti.product_id
		WHERE t.status = 'COMPLETED'
		  AND t.completed_at >= $1 AND t.completed_at < $2
		GROUP BY ti.product_id, p.brand, p.category
		ORDER BY ti.product_id
	`

	var rows []domain.ProductDaySales
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("error listing product day sales: %w", err)
	}

	return rows, nil
}

func (r *salesRepository) GetSalesTotals(ctx context.Context, productID int64, dr domain.DateRange) (domain.SalesTotals, error) {
	from, to := r.dayBounds(dr)
	query := `
		SELECT
			ti.product_id,
			COALESCE(SUM(ti.quantity), 0) AS total_quantity,
			COUNT(DISTINCT (t.completed_at AT TIME ZONE $4)::date) AS sale_days
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE ti.product_id = $1
		  AND t.status = 'COMPLETED'
		  AND t.completed_at >= $2 AND t.completed_at < $3
		GROUP BY ti.product_id
	`

	totals := domain.SalesTotals{ProductID: productID}
	err := r.db.GetContext(ctx, &totals, query, productID, from, to, r.loc.String())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SalesTotals{ProductID: productID}, nil
	}
	if err != nil {
		return totals, fmt.Errorf("error getting sales totals: %w", err)
	}

	return totals, nil
}

func (r *salesRepository) ListSalesTotals(ctx context.Context, dr domain.DateRange) ([]domain.SalesTotals, error) {
	from, to := r.dayBounds(dr)
	query := `
		SELECT
			ti.product_id,
			SUM(ti.quantity) AS total_quantity,
			COUNT(DISTINCT (t.completed_at AT TIME ZONE $3)::date) AS sale_days
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id
		WHERE t.status = 'COMPLETED'
		  AND t.completed_at >= $1 AND t.completed_at < $2
		GROUP BY ti.product_id
		ORDER BY ti.product_id
	`

	var rows []domain.SalesTotals
	if err := r.db.SelectContext(ctx, &rows, query, from, to, r.loc.String()); err != nil {
		return nil, fmt.Errorf("error listing sales totals: %w", err)
	}

	return rows, nil
}
