package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) UpsertProduct(ctx context.Context, pi domain.ProductInventory) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO products (barcode, name, brand, category, cost_price, retail_price, is_archived, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (barcode)
			DO UPDATE SET
				name = EXCLUDED.name,
				brand = EXCLUDED.brand,
				category = EXCLUDED.category,
				cost_price = EXCLUDED.cost_price,
				retail_price = EXCLUDED.retail_price,
				is_archived = EXCLUDED.is_archived,
				updated_at = NOW()
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, query,
			pi.Barcode, pi.Name, pi.Brand, string(pi.Category),
			pi.CostPrice, pi.RetailPrice, pi.IsArchived,
		).Scan(&id); err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", pi.Barcode, err)
		}

		inventory := `
			INSERT INTO inventory (product_id, current_stock, reorder_level, lead_time_days, auto_reorder, last_restock_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (product_id)
			DO UPDATE SET
				current_stock = EXCLUDED.current_stock,
				reorder_level = EXCLUDED.reorder_level,
				lead_time_days = EXCLUDED.lead_time_days,
				auto_reorder = EXCLUDED.auto_reorder,
				last_restock_at = EXCLUDED.last_restock_at,
				updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, inventory,
			id, pi.CurrentStock, pi.ReorderLevel, pi.LeadTimeDays, pi.AutoReorder, pi.LastRestockAt,
		); err != nil {
			return fmt.Errorf("failed to upsert inventory for %s: %w", pi.Barcode, err)
		}
		return nil
	})

	return id, err
}

func (r *catalogRepository) ProductIDByBarcode(ctx context.Context, barcode string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT id FROM products WHERE barcode = $1`, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("barcode %s: %w", barcode, domain.ErrProductNotFound)
		}
		return 0, fmt.Errorf("error resolving barcode %s: %w", barcode, err)
	}
	return id, nil
}

func (r *catalogRepository) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO transactions (status, completed_at) VALUES ($1, $2) RETURNING id`,
			string(txn.Status), txn.CompletedAt,
		).Scan(&txn.ID); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, quantity, unit_price, unit_cost)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range txn.Items {
			if _, err := stmt.ExecContext(ctx, txn.ID, item.ProductID, item.Quantity, item.UnitPrice, item.UnitCost); err != nil {
				return fmt.Errorf("failed to insert line for product %d: %w", item.ProductID, err)
			}
		}
		return nil
	})
}

func (r *catalogRepository) InsertEvent(ctx context.Context, event *domain.EventRecord) error {
	query := `
		INSERT INTO events (name, source, start_date, end_date, multiplier, product_id, brand, category, is_active)
		VALUES ($1, $2, $3::date, $4::date, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var category *string
	if event.Category != nil {
		c := string(*event.Category)
		category = &c
	}

	err := r.db.QueryRowxContext(ctx, query,
		event.Name, string(event.Source),
		event.StartDate.Format(domain.DateLayout), event.EndDate.Format(domain.DateLayout),
		event.Multiplier, event.ProductID, event.Brand, category, event.IsActive,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert event %q: %w", event.Name, err)
	}
	return nil
}
