package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
// Order lines are written once by Create; Update only persists the
// status and stock-release flag.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUserID(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	Delete(id string) error
}
