package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id")
	})
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := preloadItems(r.db).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, models.Persistence("get all orders", err)
	}
	return orders, nil
}

// GetByUserID retrieves the orders placed by one user, newest first.
func (r *GORMOrderRepository) GetByUserID(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := preloadItems(r.db).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, models.Persistence(fmt.Sprintf("get orders of user %s", userID), err)
	}
	return orders, nil
}

// GetByID retrieves an order with its lines.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := preloadItems(r.db).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrOrderNotFound)
		}
		return nil, models.Persistence(fmt.Sprintf("get order %s", id), err)
	}
	return &order, nil
}

// Create inserts the order and its lines in one transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return models.Persistence("create order", err)
	}
	return nil
}

// Update persists the order's status and stock-release flag.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	order.UpdatedAt = time.Now()
	res := r.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"status":         order.Status,
		"stock_released": order.StockReleased,
		"updated_at":     order.UpdatedAt,
	})
	if res.Error != nil {
		return models.Persistence(fmt.Sprintf("update order %s", order.ID), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", order.ID, models.ErrOrderNotFound)
	}
	return nil
}

// Delete removes an order and its lines.
func (r *GORMOrderRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return models.Persistence(fmt.Sprintf("delete lines of order %s", id), err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return models.Persistence(fmt.Sprintf("delete order %s", id), res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %s: %w", id, models.ErrOrderNotFound)
		}
		return nil
	})
	return err
}
