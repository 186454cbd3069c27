package domain

import "time"

// ForecastOptions controls a single forecast computation
type ForecastOptions struct {
	ForecastDate           time.Time `json:"forecast_date"`
	LookbackDays           int       `json:"lookback_days"`
	IncludeEventAdjustment *bool     `json:"include_event_adjustment,omitempty"`
}

// EventsIncluded reports whether active-event multipliers should be applied (default true).
func (o ForecastOptions) EventsIncluded() bool {
	return o.IncludeEventAdjustment == nil || *o.IncludeEventAdjustment
}

// BatchForecastOptions controls catalog-wide forecasting
type BatchForecastOptions struct {
	ForecastOptions
	Categories []Category `json:"categories,omitempty"`
}

// ForecastResult is the per-product output of the forecasting engine
type ForecastResult struct {
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Barcode      string    `json:"barcode"`
	Brand        string    `json:"brand"`
	Category     Category  `json:"category"`
	ForecastDate time.Time `json:"forecast_date"`

	ForecastedDailyUnits  int        `json:"forecasted_daily_units"`
	ForecastedWeeklyUnits int        `json:"forecasted_weekly_units"`
	SuggestedReorderQty   int        `json:"suggested_reorder_qty"`
	Confidence            Confidence `json:"confidence"`

	DataPoints      int `json:"data_points"`
	CleanDataPoints int `json:"clean_data_points"`

	SeasonalityFactor float64       `json:"seasonality_factor"`
	EventAdjustment   float64       `json:"event_adjustment"`
	ActiveEvents      []ActiveEvent `json:"active_events"`
	YoYFactor         float64       `json:"yoy_factor"`
	HasYoYData        bool          `json:"has_yoy_data"`

	AvgDailyVelocity      float64 `json:"avg_daily_velocity"`
	CleanAvgDailyVelocity float64 `json:"clean_avg_daily_velocity"`
	WMABaseline           float64 `json:"wma_baseline"`
	Velocity7Day          float64 `json:"velocity_7_day"`
	VelocityDivisor       int     `json:"velocity_divisor"`
	Trend                 Trend   `json:"trend"`

	CurrentStock int         `json:"current_stock"`
	ReorderLevel int         `json:"reorder_level"`
	DaysOfStock  int         `json:"days_of_stock"`
	StockStatus  StockStatus `json:"stock_status"`
}

// ROPBreakdown lists the inputs behind a dynamic reorder point
type ROPBreakdown struct {
	DailyVelocity float64 `json:"daily_velocity"`
	LeadTimeDays  int     `json:"lead_time_days"`
	SafetyBuffer  int     `json:"safety_buffer"`
	ManualLevel   int     `json:"manual_level"`
	TotalQuantity int     `json:"total_quantity"`
	SaleDays      int     `json:"sale_days"`
	WindowDays    int     `json:"window_days"`
}

// DynamicROPResult is the computed reorder trigger for a product
type DynamicROPResult struct {
	ProductID        int64        `json:"product_id"`
	ReorderPoint     int          `json:"reorder_point"`
	IsAutoCalculated bool         `json:"is_auto_calculated"`
	Formula          string       `json:"formula"`
	Breakdown        ROPBreakdown `json:"breakdown"`
}
