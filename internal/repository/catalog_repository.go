package repository

import (
	"context"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// CatalogRepository writes seed data: products with inventory, transactions and events
type CatalogRepository interface {
	// UpsertProduct inserts or updates the product keyed by barcode together with its
	// inventory record and returns the product id
	UpsertProduct(ctx context.Context, pi domain.ProductInventory) (int64, error)
	// ProductIDByBarcode returns domain.ErrProductNotFound for unknown barcodes
	ProductIDByBarcode(ctx context.Context, barcode string) (int64, error)
	InsertTransaction(ctx context.Context, txn *domain.Transaction) error
	InsertEvent(ctx context.Context, event *domain.EventRecord) error
}
