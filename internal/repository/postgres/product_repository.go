package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/lib/pq"
)

const productInventoryColumns = `
	p.id, p.barcode, p.name, p.brand, p.category,
	p.cost_price, p.retail_price, p.is_archived,
	i.product_id, i.current_stock, i.reorder_level,
	i.lead_time_days, i.auto_reorder, i.last_restock_at
`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProductInventory(ctx context.Context, productID int64) (*domain.ProductInventory, error) {
	query := `
		SELECT ` + productInventoryColumns + `
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		WHERE p.id = $1
	`

	var pi domain.ProductInventory
	if err := r.db.GetContext(ctx, &pi, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("error getting product inventory: %w", err)
	}

	return &pi, nil
}

func (r *productRepository) ListActiveProductInventories(ctx context.Context, categories []domain.Category) ([]domain.ProductInventory, error) {
	query := `
		SELECT ` + productInventoryColumns + `
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		WHERE NOT p.is_archived
	`

	var args []interface{}
	if len(categories) > 0 {
		labels := make([]string, 0, len(categories))
		for _, c := range categories {
			labels = append(labels, string(c))
		}
		query += ` AND p.category = ANY($1)`
		args = append(args, pq.Array(labels))
	}
	query += ` ORDER BY p.id`

	var items []domain.ProductInventory
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error listing product inventories: %w", err)
	}

	return items, nil
}
