package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/keylock"

	"github.com/shopspring/decimal"
)

// CartItemView is a cart line joined with the product's current catalog data.
type CartItemView struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	InStock          bool            `json:"in_stock"`
	ProductAvailable bool            `json:"product_available"`
	AddedAt          time.Time       `json:"added_at"`
}

// CartView is the read-side snapshot of a cart.
type CartView struct {
	UserID     string          `json:"user_id"`
	Items      []CartItemView  `json:"items"`
	TotalItems int             `json:"total_items"`
	Total      decimal.Decimal `json:"total"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartService owns users' uncommitted cart lines. It consults the ledger for
// availability but never reserves stock.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	ledger      *inventory.Ledger
	locks       *keylock.Map
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, ledger *inventory.Ledger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		locks:       keylock.New(),
	}
}

func (s *CartService) requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return models.Validationf("user id is required")
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return err
	}
	return nil
}

func checkLine(productID string, quantity int) error {
	if strings.TrimSpace(productID) == "" {
		return models.Validationf("product id is required")
	}
	if quantity < 1 {
		return fmt.Errorf("%w, got %d", models.ErrInvalidQuantity, quantity)
	}
	return nil
}

func (s *CartService) ensureAvailable(productID string, quantity int) error {
	ok, err := s.ledger.CheckAvailable(productID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: product %s cannot supply %d", models.ErrOutOfStock, productID, quantity)
	}
	return nil
}

// AddItem adds quantity of a product, merging into an existing line.
func (s *CartService) AddItem(userID, productID string, quantity int) (*CartView, error) {
	if err := checkLine(productID, quantity); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}

	idx := cart.Find(productID)
	resulting := quantity
	if idx >= 0 {
		resulting += cart.Items[idx].Quantity
	}
	if err := s.ensureAvailable(productID, resulting); err != nil {
		return nil, err
	}

	if idx >= 0 {
		cart.Items[idx].Quantity = resulting
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.view(cart)
}

// UpdateQuantity replaces the quantity of an existing line.
func (s *CartService) UpdateQuantity(userID, productID string, quantity int) (*CartView, error) {
	if err := checkLine(productID, quantity); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	idx := cart.Find(productID)
	if idx < 0 {
		return nil, fmt.Errorf("product %s: %w", productID, models.ErrItemNotFound)
	}
	if err := s.ensureAvailable(productID, quantity); err != nil {
		return nil, err
	}

	cart.Items[idx].Quantity = quantity
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.view(cart)
}

// RemoveItem deletes the line for a product.
func (s *CartService) RemoveItem(userID, productID string) (*CartView, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	idx := cart.Find(productID)
	if idx < 0 {
		return nil, fmt.Errorf("product %s: %w", productID, models.ErrItemNotFound)
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.view(cart)
}

// Clear removes every line from the user's cart.
func (s *CartService) Clear(userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.requireUser(userID); err != nil {
		return err
	}
	return s.cartRepo.Delete(userID)
}

// GetCart returns the current snapshot of the user's cart.
func (s *CartService) GetCart(userID string) (*CartView, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	return s.view(cart)
}

// Drain hands the user's lines to consume while holding the cart lock and
// clears the cart once consume succeeds. An empty cart is a validation error.
// The outcome of consume stands even when the clear fails; that failure is
// only logged.
func (s *CartService) Drain(userID string, consume func(items []models.CartItem) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.requireUser(userID); err != nil {
		return err
	}
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return models.Validationf("cart is empty")
	}
	if err := consume(cart.Clone().Items); err != nil {
		return err
	}
	if err := s.cartRepo.Delete(userID); err != nil {
		log.Printf("Warning: Failed to clear cart of user %s after checkout: %v", userID, err)
	}
	return nil
}

func (s *CartService) view(cart *models.Cart) (*CartView, error) {
	view := &CartView{
		UserID:    cart.UserID,
		Items:     make([]CartItemView, 0, len(cart.Items)),
		Total:     decimal.Zero,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			UnitPrice: decimal.Zero,
			Subtotal:  decimal.Zero,
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			// Product left the catalog; keep the line visible but out of the total.
		case err != nil:
			return nil, err
		default:
			line.ProductAvailable = true
			line.Name = product.Name
			line.SKU = product.SKU
			line.UnitPrice = product.Price
			line.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.InStock = product.Stock >= item.Quantity
			view.Total = view.Total.Add(line.Subtotal)
			view.TotalItems += item.Quantity
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}
