package repositories

import "storefront/internal/models"

// CartRepository stores one cart per user.
// Get returns an empty cart, not an error, for a user who has none yet.
type CartRepository interface {
	Get(userID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	Delete(userID string) error
}
