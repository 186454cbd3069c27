package domain

import "errors"

var (
	// ErrProductNotFound is returned when a forecast or reorder point is requested for an unknown product
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidInventory is returned when an inventory record cannot be forecast (e.g. negative stock)
	ErrInvalidInventory = errors.New("invalid inventory record")
)
