package domain

import (
	"strings"
	"time"
)

// EventSource identifies what kind of event raised demand on a day.
type EventSource string

const (
	EventSourceNone                 EventSource = ""
	EventSourceStoreDiscount        EventSource = "STORE_DISCOUNT"
	EventSourceManufacturerCampaign EventSource = "MANUFACTURER_CAMPAIGN"
	EventSourceHoliday              EventSource = "HOLIDAY"
)

// EventRecord is a promotional, manufacturer or holiday event with a demand multiplier.
// A nil ProductID, Brand and Category means the event applies store-wide.
type EventRecord struct {
	ID         int64       `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Source     EventSource `json:"source" db:"source"`
	StartDate  time.Time   `json:"start_date" db:"start_date"`
	EndDate    time.Time   `json:"end_date" db:"end_date"`
	Multiplier float64     `json:"multiplier" db:"multiplier"`
	ProductID  *int64      `json:"product_id,omitempty" db:"product_id"`
	Brand      *string     `json:"brand,omitempty" db:"brand"`
	Category   *Category   `json:"category,omitempty" db:"category"`
	IsActive   bool        `json:"is_active" db:"is_active"`
}

// ActiveEvent is the summary of an event reported on a forecast
type ActiveEvent struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Source     EventSource `json:"source"`
	Multiplier float64     `json:"multiplier"`
}

// Covers reports whether the event's inclusive date range contains day.
func (e EventRecord) Covers(day time.Time) bool {
	return DateRange{Start: e.StartDate, End: e.EndDate}.Contains(day)
}

// Overlaps reports whether the event intersects the inclusive range [start, end].
func (e EventRecord) Overlaps(start, end time.Time) bool {
	return !DateOf(e.StartDate).After(DateOf(end)) && !DateOf(e.EndDate).Before(DateOf(start))
}

// AppliesTo reports whether the event's scope includes a product with the given
// id, brand and category.
func (e EventRecord) AppliesTo(productID int64, brand string, category Category) bool {
	if e.ProductID == nil && e.Brand == nil && e.Category == nil {
		return true
	}
	if e.ProductID != nil && *e.ProductID == productID {
		return true
	}
	if e.Brand != nil && brand != "" && strings.EqualFold(strings.TrimSpace(*e.Brand), strings.TrimSpace(brand)) {
		return true
	}
	if e.Category != nil && *e.Category == category {
		return true
	}

	return false
}

// Summary converts the record to the shape reported on forecasts.
func (e EventRecord) Summary() ActiveEvent {
	return ActiveEvent{
		ID:         e.ID,
		Name:       e.Name,
		Source:     e.Source,
		Multiplier: e.Multiplier,
	}
}
