package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/keylock"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderLineRequest is one requested (product, quantity) pair.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CreateOrderRequest is the input of CreateOrder.
type CreateOrderRequest struct {
	Items           []OrderLineRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

// OrderService coordinates order creation and lifecycle with the stock ledger.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	productRepo    repositories.ProductRepository
	userRepo       repositories.UserRepository
	ledger         *inventory.Ledger
	carts          *CartService
	publisher      EventPublisher
	validate       *validator.Validate
	locks          *keylock.Map
	defaultCountry string
}

// OrderServiceOption configures optional collaborators of an OrderService.
type OrderServiceOption func(*OrderService)

// WithEventPublisher publishes order events through p.
func WithEventPublisher(p EventPublisher) OrderServiceOption {
	return func(s *OrderService) { s.publisher = p }
}

// WithDefaultCountry fills the shipping country when a request leaves it blank.
func WithDefaultCountry(country string) OrderServiceOption {
	return func(s *OrderService) { s.defaultCountry = country }
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	ledger *inventory.Ledger,
	carts *CartService,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		carts:       carts,
		validate:    NewValidator(),
		locks:       keylock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) normalize(req *CreateOrderRequest) error {
	addr := &req.ShippingAddress
	addr.Street = strings.TrimSpace(addr.Street)
	addr.City = strings.TrimSpace(addr.City)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.TrimSpace(addr.Country)
	if addr.Country == "" {
		addr.Country = s.defaultCountry
	}
	for i := range req.Items {
		req.Items[i].ProductID = strings.TrimSpace(req.Items[i].ProductID)
	}
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// CreateOrder validates the request, reserves every line as one group and
// persists a pending order priced at the current catalog prices.
func (s *OrderService) CreateOrder(userID string, req CreateOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.Validationf("user id is required")
	}
	req.Items = append([]OrderLineRequest(nil), req.Items...)
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		Status:          models.OrderStatusPending,
	}
	byProduct := make(map[string]int, len(req.Items))
	for _, line := range req.Items {
		if idx, ok := byProduct[line.ProductID]; ok {
			order.Items[idx].Quantity += line.Quantity
			continue
		}
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		byProduct[line.ProductID] = len(order.Items)
		order.Items = append(order.Items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   product.ID,
			Quantity:    line.Quantity,
			PriceAtTime: product.Price,
		})
	}
	order.TotalAmount = order.ComputeTotal()

	lines := orderLines(order)
	if err := s.ledger.ReserveAll(lines); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(order); err != nil {
		if creditErr := s.ledger.CreditAll(lines); creditErr != nil {
			log.Printf("CRITICAL: Failed to release stock of unsaved order %s: %v", order.ID, creditErr)
			return nil, errors.Join(err, creditErr)
		}
		return nil, err
	}

	log.Printf("Order %s created for user %s (%d lines, total %s)", order.ID, userID, len(order.Items), order.TotalAmount)
	publishOrderEvent(s.publisher, EventOrderCreated, order)
	return order, nil
}

// SetStatus moves an order along its lifecycle. It only records the new
// status; stock is never moved here.
func (s *OrderService) SetStatus(orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, models.Validationf("unknown order status %q", status)
	}
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidStatusTransition, order.Status, status)
	}

	order.Status = status
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	publishOrderEvent(s.publisher, EventOrderStatusChanged, order)
	return order, nil
}

// CancelOrder cancels a pending or processing order and returns its stock.
func (s *OrderService) CancelOrder(orderID string) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, models.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidStatusTransition, order.Status, models.OrderStatusCancelled)
	}

	release := !order.StockReleased
	order.Status = models.OrderStatusCancelled
	order.StockReleased = true
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	if release {
		if err := s.ledger.CreditAll(orderLines(order)); err != nil {
			log.Printf("CRITICAL: Order %s cancelled but stock was not fully released: %v", order.ID, err)
			return nil, err
		}
	}
	publishOrderEvent(s.publisher, EventOrderCancelled, order)
	return order, nil
}

// DeleteOrder removes an order. Stock reserved by an order that never
// completed is credited back first.
func (s *OrderService) DeleteOrder(orderID string) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}

	if order.Status != models.OrderStatusCompleted && !order.StockReleased {
		order.StockReleased = true
		if err := s.orderRepo.Update(order); err != nil {
			return err
		}
		if err := s.ledger.CreditAll(orderLines(order)); err != nil {
			log.Printf("CRITICAL: Stock of order %s was not fully released: %v", order.ID, err)
			return err
		}
	}

	if err := s.orderRepo.Delete(orderID); err != nil {
		return err
	}
	log.Printf("Order %s deleted (status %s)", order.ID, order.Status)
	publishOrderEvent(s.publisher, EventOrderDeleted, order)
	return nil
}

// Checkout turns the user's cart into an order and empties the cart.
func (s *OrderService) Checkout(userID string, address models.ShippingAddress) (*models.Order, error) {
	if s.carts == nil {
		return nil, fmt.Errorf("checkout is not configured")
	}
	var order *models.Order
	err := s.carts.Drain(userID, func(items []models.CartItem) error {
		req := CreateOrderRequest{
			Items:           make([]OrderLineRequest, 0, len(items)),
			ShippingAddress: address,
		}
		for _, item := range items {
			req.Items = append(req.Items, OrderLineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		created, err := s.CreateOrder(userID, req)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns one order.
func (s *OrderService) GetOrder(orderID string) (*models.Order, error) {
	return s.orderRepo.GetByID(orderID)
}

// ListOrders returns the orders of one user, newest first.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// ListAllOrders returns every order, newest first.
func (s *OrderService) ListAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func orderLines(order *models.Order) []inventory.Line {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
