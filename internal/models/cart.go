package models

import "time"

// CartItem is one (product, quantity) line in a user's cart.
type CartItem struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	CartUserID string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_cart_product"`
	ProductID  string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_product"`
	Quantity   int       `json:"quantity"`
	Position   int       `json:"-"` // insertion order
	AddedAt    time.Time `json:"added_at"`
}

// Cart holds a user's uncommitted line items. There is exactly one cart per user.
type Cart struct {
	UserID    string     `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartUserID;references:UserID;constraint:OnDelete:CASCADE"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for the user.
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// Find returns the index of the line for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so stored carts are never aliased by callers.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
