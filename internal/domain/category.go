package domain

import "strings"

// Category is the closed set of product categories.
type Category string

const (
	CategorySoda           Category = "SODA"
	CategorySoftdrinksCase Category = "SOFTDRINKS_CASE"
	CategoryBeverages      Category = "BEVERAGES"
	CategorySnack          Category = "SNACK"
	CategoryCannedGoods    Category = "CANNED_GOODS"
	CategoryDairy          Category = "DAIRY"
	CategoryCondiments     Category = "CONDIMENTS"
	CategoryPersonalCare   Category = "PERSONAL_CARE"
	CategoryHousehold      Category = "HOUSEHOLD"
	CategoryInstantNoodles Category = "INSTANT_NOODLES"
	CategoryOther          Category = "OTHER"
)

type categoryTag uint8

const (
	tagBeverage categoryTag = 1 << iota
)

var categoryTags = map[Category]categoryTag{
	CategorySoda:           tagBeverage,
	CategorySoftdrinksCase: tagBeverage,
	CategoryBeverages:      tagBeverage,
	CategorySnack:          0,
	CategoryCannedGoods:    0,
	CategoryDairy:          0,
	CategoryCondiments:     0,
	CategoryPersonalCare:   0,
	CategoryHousehold:      0,
	CategoryInstantNoodles: 0,
	CategoryOther:          0,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryTags[c]
	return ok
}

// IsBeverage reports whether the category gets the summer beverage uplift.
func (c Category) IsBeverage() bool {
	return categoryTags[c]&tagBeverage != 0
}

// ParseCategory returns the category for a label (case-insensitive).
func ParseCategory(label string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(label)))
	if !c.Valid() {
		return "", false
	}

	return c, true
}
