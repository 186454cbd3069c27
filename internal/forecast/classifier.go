package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	// DeadStockDays is reported as days of stock when velocity is effectively zero
	DeadStockDays = 999

	criticalCoverDays = 2
	lowCoverDays      = 7
)

// ClassifyStock maps current stock and daily velocity to a coverage-based status
// and whole days of stock. It does not look at the manual reorder level.
func ClassifyStock(currentStock int, dailyVelocity float64) (domain.StockStatus, int) {
	if currentStock <= 0 {
		return domain.StockOutOfStock, 0
	}
	if dailyVelocity < deadStockVelocity {
		return domain.StockDead, DeadStockDays
	}

	coverage := float64(currentStock) / dailyVelocity
	days := int(math.Floor(coverage))

	switch {
	case coverage <= criticalCoverDays:
		return domain.StockCritical, days
	case coverage <= lowCoverDays:
		return domain.StockLow, days
	default:
		return domain.StockHealthy, days
	}
}

// ApplyInventory recomputes the stock-dependent fields of r from inv, keeping the
// demand forecast as is.
func ApplyInventory(r *domain.ForecastResult, inv domain.InventoryRecord) error {
	if inv.CurrentStock < 0 {
		return fmt.Errorf("product %d has negative stock %d: %w", r.ProductID, inv.CurrentStock, domain.ErrInvalidInventory)
	}

	r.CurrentStock = inv.CurrentStock
	r.ReorderLevel = inv.ReorderLevel
	r.SuggestedReorderQty = SuggestReorderQty(r.ForecastedDailyUnits, inv.CurrentStock, inv.ReorderLevel)
	r.StockStatus, r.DaysOfStock = ClassifyStock(inv.CurrentStock, float64(r.ForecastedDailyUnits))

	return nil
}
