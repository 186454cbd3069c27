package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a POS transaction. Only completed
// transactions count as sales.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionVoided    TransactionStatus = "VOIDED"
)

// Transaction is a POS ticket with its lines
type Transaction struct {
	ID          int64             `json:"id" db:"id"`
	Status      TransactionStatus `json:"status" db:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	Items       []TransactionItem `json:"items"`
}

// TransactionItem is one product line on a transaction
type TransactionItem struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost" db:"unit_cost"`
}
