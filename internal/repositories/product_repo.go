package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
//
// Update writes catalog metadata and price only. Stock changes go through
// GetStock/AdjustStock, which back the inventory ledger.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	GetStock(id string) (int, error)
	AdjustStock(id string, delta int) error
}
