package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by repositories, services and handlers.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart item %w", ErrNotFound)

	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)

	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOutOfStock is returned by the advisory cart checks.
	ErrOutOfStock = fmt.Errorf("out of stock: %w", ErrInsufficientStock)

	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// ErrPersistence wraps every infrastructure failure from the storage layer.
	ErrPersistence = errors.New("persistence failure")
	ErrConflict    = errors.New("conflict")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// InsufficientStockError reports the product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)", e.ProductID, e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Validationf builds an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence wraps a storage error so it matches ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
