// forecast-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Barcode     string          `json:"barcode" db:"barcode"`
	Name        string          `json:"name" db:"name"`
	Brand       string          `json:"brand" db:"brand"`
	Category    Category        `json:"category" db:"category"`
	CostPrice   decimal.Decimal `json:"cost_price" db:"cost_price"`
	RetailPrice decimal.Decimal `json:"retail_price" db:"retail_price"`
	IsArchived  bool            `json:"is_archived" db:"is_archived"`
}

// InventoryRecord holds the stock position of a single product
type InventoryRecord struct {
	ProductID     int64      `json:"product_id" db:"product_id"`
	CurrentStock  int        `json:"current_stock" db:"current_stock"`
	ReorderLevel  int        `json:"reorder_level" db:"reorder_level"`
	LeadTimeDays  int        `json:"lead_time_days" db:"lead_time_days"`
	AutoReorder   bool       `json:"auto_reorder" db:"auto_reorder"`
	LastRestockAt *time.Time `json:"last_restock_at,omitempty" db:"last_restock_at"`
}

// ProductInventory is a product joined with its inventory record
type ProductInventory struct {
	Product
	InventoryRecord
}

// DailySalesAggregate is the materialized per (product, day) sales row
type DailySalesAggregate struct {
	ProductID        int64           `json:"product_id" db:"product_id"`
	Date             time.Time       `json:"date" db:"sale_date"`
	QuantitySold     int             `json:"quantity_sold" db:"quantity_sold"`
	Revenue          decimal.Decimal `json:"revenue" db:"revenue"`
	Cost             decimal.Decimal `json:"cost" db:"cost"`
	Profit           decimal.Decimal `json:"profit" db:"profit"`
	TransactionCount int             `json:"transaction_count" db:"transaction_count"`
	IsEventDay       bool            `json:"is_event_day" db:"is_event_day"`
	EventID          *int64          `json:"event_id,omitempty" db:"event_id"`
	EventSource      EventSource     `json:"event_source,omitempty" db:"event_source"`
}

// DailySales is one element of a product's daily sold-quantity series
type DailySales struct {
	Date        time.Time   `json:"date"`
	Quantity    int         `json:"quantity"`
	IsEventDay  bool        `json:"is_event_day"`
	EventSource EventSource `json:"event_source,omitempty"`
	EventID     *int64      `json:"event_id,omitempty"`
}

// SaleLine is a single line item of a completed transaction
type SaleLine struct {
	ProductID     int64           `db:"product_id"`
	TransactionID int64           `db:"transaction_id"`
	CompletedAt   time.Time       `db:"completed_at"`
	Quantity      int             `db:"quantity"`
	Revenue       decimal.Decimal `db:"revenue"`
	Cost          decimal.Decimal `db:"cost"`
}

// ProductDaySales is the per-product sum of completed sales for one day
type ProductDaySales struct {
	ProductID        int64           `db:"product_id"`
	Brand            string          `db:"brand"`
	Category         Category        `db:"category"`
	QuantitySold     int             `db:"quantity_sold"`
	Revenue          decimal.Decimal `db:"revenue"`
	Cost             decimal.Decimal `db:"cost"`
	TransactionCount int             `db:"transaction_count"`
}

// SalesTotals summarizes completed sales of a product over a window
type SalesTotals struct {
	ProductID     int64 `json:"product_id" db:"product_id"`
	TotalQuantity int   `json:"total_quantity" db:"total_quantity"`
	SaleDays      int   `json:"sale_days" db:"sale_days"`
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls within the range
func (r DateRange) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(DateOf(r.Start)) && !d.After(DateOf(r.End))
}
