package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Get loads the user's cart with its lines in insertion order.
func (r *GORMCartRepository) Get(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).First(&cart, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewCart(userID), nil
		}
		return nil, models.Persistence(fmt.Sprintf("get cart of %s", userID), err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save replaces the stored lines of the cart with cart.Items.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		row := models.Cart{UserID: cart.UserID, UpdatedAt: cart.UpdatedAt}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Omit("Items").Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_user_id = ?", cart.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		items := make([]models.CartItem, len(cart.Items))
		for i, item := range cart.Items {
			item.ID = 0
			item.CartUserID = cart.UserID
			item.Position = i
			items[i] = item
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return models.Persistence(fmt.Sprintf("save cart of %s", cart.UserID), err)
	}
	return nil
}

// Delete removes the cart and its lines. Deleting a missing cart is not an error.
func (r *GORMCartRepository) Delete(userID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, "user_id = ?", userID).Error
	})
	if err != nil {
		return models.Persistence(fmt.Sprintf("delete cart of %s", userID), err)
	}
	return nil
}
