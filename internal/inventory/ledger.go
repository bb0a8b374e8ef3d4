// Package inventory owns the available-quantity bookkeeping for products.
//
// Every mutation of a product's stock goes through a Ledger, which serializes
// reserve, credit and restock calls per product id. Batches lock their products
// in sorted order and validate every line before any write, so a batch either
// reserves all of its lines or leaves stock untouched.
package inventory

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront/internal/models"
	"storefront/pkg/keylock"
)

// Store is the persistence primitive the ledger wraps.
// AdjustStock applies delta to the product's stock and must refuse to take it
// below zero, returning an error matching models.ErrInsufficientStock.
type Store interface {
	GetStock(productID string) (int, error)
	AdjustStock(productID string, delta int) error
}

// Line is one product quantity inside a reservation or credit batch.
type Line struct {
	ProductID string
	Quantity  int
}

// Ledger is the single authority over product stock.
type Ledger struct {
	store Store
	locks *keylock.Map
}

// NewLedger creates a Ledger over store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: keylock.New(),
	}
}

// Available returns the current stock of a product.
func (l *Ledger) Available(productID string) (int, error) {
	if err := validateID(productID); err != nil {
		return 0, err
	}
	return l.store.GetStock(productID)
}

// CheckAvailable reports whether quantity could be reserved right now.
// The answer is advisory: it may be stale as soon as it is returned.
func (l *Ledger) CheckAvailable(productID string, quantity int) (bool, error) {
	if err := validateLine(Line{ProductID: productID, Quantity: quantity}); err != nil {
		return false, err
	}
	available, err := l.store.GetStock(productID)
	if err != nil {
		return false, err
	}
	return available >= quantity, nil
}

// Reserve decrements a single product's stock if enough is available.
func (l *Ledger) Reserve(productID string, quantity int) error {
	return l.ReserveAll([]Line{{ProductID: productID, Quantity: quantity}})
}

// ReserveAll reserves every line or none of them.
// Repeated product ids are summed. On shortage the returned error is a
// *models.InsufficientStockError for the first short product in request order.
func (l *Ledger) ReserveAll(lines []Line) error {
	merged, order, err := mergeLines(lines)
	if err != nil {
		return err
	}

	unlock := l.locks.LockAll(order)
	defer unlock()

	for _, id := range order {
		available, err := l.store.GetStock(id)
		if err != nil {
			return err
		}
		if available < merged[id] {
			return &models.InsufficientStockError{ProductID: id, Requested: merged[id], Available: available}
		}
	}

	applied := make([]Line, 0, len(order))
	for _, id := range order {
		if err := l.store.AdjustStock(id, -merged[id]); err != nil {
			if rbErr := l.rollback(applied); rbErr != nil {
				return errors.Join(fmt.Errorf("failed to reserve product %s: %w", id, err), rbErr)
			}
			return fmt.Errorf("failed to reserve product %s: %w", id, err)
		}
		applied = append(applied, Line{ProductID: id, Quantity: merged[id]})
	}
	return nil
}

// rollback credits back decrements applied earlier in the same batch.
// The caller still holds the product locks.
func (l *Ledger) rollback(applied []Line) error {
	var errs []error
	for _, line := range applied {
		if err := l.store.AdjustStock(line.ProductID, line.Quantity); err != nil {
			log.Printf("inventory: rollback of %d x %s failed: %v", line.Quantity, line.ProductID, err)
			errs = append(errs, fmt.Errorf("rollback product %s: %w", line.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// Credit returns quantity to a product's stock. It is only used to
// compensate a reservation whose order is cancelled or deleted.
// A product that has left the catalog has no stock to return to, so its
// credit is dropped and only logged.
func (l *Ledger) Credit(productID string, quantity int) error {
	if err := validateLine(Line{ProductID: productID, Quantity: quantity}); err != nil {
		return err
	}
	unlock := l.locks.Lock(productID)
	defer unlock()
	err := l.store.AdjustStock(productID, quantity)
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Printf("inventory: dropping credit of %d x %s: product no longer exists", quantity, productID)
		return nil
	case err != nil:
		return fmt.Errorf("failed to credit product %s: %w", productID, err)
	}
	return nil
}

// CreditAll credits each line independently and reports every failure.
func (l *Ledger) CreditAll(lines []Line) error {
	var errs []error
	for _, line := range lines {
		if err := l.Credit(line.ProductID, line.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Restock adds newly received stock for a product. Catalog management uses
// this instead of Credit so compensation and replenishment stay distinct.
func (l *Ledger) Restock(productID string, quantity int) error {
	if err := validateLine(Line{ProductID: productID, Quantity: quantity}); err != nil {
		return err
	}
	unlock := l.locks.Lock(productID)
	defer unlock()
	if err := l.store.AdjustStock(productID, quantity); err != nil {
		return fmt.Errorf("failed to restock product %s: %w", productID, err)
	}
	return nil
}

func validateID(productID string) error {
	if strings.TrimSpace(productID) == "" {
		return models.Validationf("product id is required")
	}
	return nil
}

func validateLine(line Line) error {
	if err := validateID(line.ProductID); err != nil {
		return err
	}
	if line.Quantity < 1 {
		return models.Validationf("quantity for product %s must be at least 1, got %d", line.ProductID, line.Quantity)
	}
	return nil
}

// mergeLines sums quantities per product and keeps first-appearance order.
func mergeLines(lines []Line) (map[string]int, []string, error) {
	if len(lines) == 0 {
		return nil, nil, models.Validationf("at least one line is required")
	}
	merged := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if err := validateLine(line); err != nil {
			return nil, nil, err
		}
		if _, ok := merged[line.ProductID]; !ok {
			order = append(order, line.ProductID)
		}
		merged[line.ProductID] += line.Quantity
	}
	return merged, order, nil
}
