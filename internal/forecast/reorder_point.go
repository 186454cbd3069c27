package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

const (
	// ROPWindowDays is the trailing window of completed sales used for reorder points
	ROPWindowDays = 30

	safetyBufferDays    = 3
	defaultLeadTimeDays = 3
)

// DynamicReorderPoint derives the reorder trigger for a product from its trailing
// 30-day sales. Manual levels are returned verbatim when auto reorder is off.
func DynamicReorderPoint(inv domain.InventoryRecord, totals domain.SalesTotals) domain.DynamicROPResult {
	leadTime := inv.LeadTimeDays
	if leadTime <= 0 {
		leadTime = defaultLeadTimeDays
	}

	result := domain.DynamicROPResult{
		ProductID: inv.ProductID,
		Breakdown: domain.ROPBreakdown{
			LeadTimeDays:  leadTime,
			ManualLevel:   inv.ReorderLevel,
			TotalQuantity: totals.TotalQuantity,
			SaleDays:      totals.SaleDays,
			WindowDays:    ROPWindowDays,
		},
	}

	if !inv.AutoReorder {
		result.ReorderPoint = inv.ReorderLevel
		result.Formula = fmt.Sprintf("manual reorder level = %d", inv.ReorderLevel)
		return result
	}

	result.IsAutoCalculated = true

	// 1. Daily velocity over the full calendar window, even with fewer sale days
	velocity := float64(totals.TotalQuantity) / ROPWindowDays
	result.Breakdown.DailyVelocity = velocity

	// 2. Never suggest reordering something that has not sold
	if velocity == 0 {
		result.ReorderPoint = 0
		result.Formula = fmt.Sprintf("no sales in %d days = 0", ROPWindowDays)
		return result
	}

	// 3. Safety buffer = ceil(velocity × 3 days)
	safety := int(math.Ceil(velocity * safetyBufferDays))
	result.Breakdown.SafetyBuffer = safety

	// 4. Reorder point = ceil(velocity × lead time + safety buffer)
	result.ReorderPoint = int(math.Ceil(velocity*float64(leadTime) + float64(safety)))
	result.Formula = fmt.Sprintf("ceil(%.2f/day × %dd + %d) = %d", velocity, leadTime, safety, result.ReorderPoint)

	return result
}
