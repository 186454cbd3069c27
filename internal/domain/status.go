package domain

// StockStatus is the coverage-based stock health tag.
type StockStatus string

const (
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockDead       StockStatus = "DEAD_STOCK"
	StockCritical   StockStatus = "CRITICAL"
	StockLow        StockStatus = "LOW"
	StockHealthy    StockStatus = "HEALTHY"
)

// Confidence tiers a forecast by how much clean history backed it.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Trend is the short-term direction of sales velocity.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// alert urgency; zero means the status never raises a reorder alert
var stockStatusUrgency = map[StockStatus]int{
	StockOutOfStock: 3,
	StockCritical:   2,
	StockLow:        1,
	StockDead:       0,
	StockHealthy:    0,
}

var stockStatusLabels = map[StockStatus]string{
	StockOutOfStock: "Out of stock",
	StockDead:       "Dead stock",
	StockCritical:   "Critical",
	StockLow:        "Low",
	StockHealthy:    "Healthy",
}

// Urgency ranks statuses for reorder alerts (higher is more urgent).
func (s StockStatus) Urgency() int {
	return stockStatusUrgency[s]
}

// NeedsReorder reports whether the status belongs on the reorder alert list.
func (s StockStatus) NeedsReorder() bool {
	return s.Urgency() > 0
}

// Label returns a human-readable label for a stock status.
func (s StockStatus) Label() string {
	if label, ok := stockStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}
