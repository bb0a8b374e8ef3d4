package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)

	admin := middleware.AdminRequired()
	orderRoutes.Patch("/:id/status", admin, h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", admin, h.HandleDeleteOrder)
}

// HandleGetOrders lists the caller's orders. Admins see every order.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)

	var (
		orders []models.Order
		err    error
	)
	if identity != nil && identity.IsAdmin() {
		orders, err = h.service.ListAllOrders()
	} else {
		orders, err = h.service.ListOrders(callerID(c))
	}
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// visibleOrder loads an order the caller is allowed to see.
func (h *OrderHandler) visibleOrder(c *fiber.Ctx, orderID string) (*models.Order, error) {
	order, err := h.service.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	identity, ok := middleware.CurrentIdentity(c)
	if !ok || (!identity.IsAdmin() && identity.UserID != order.UserID) {
		return nil, fmt.Errorf("order %s belongs to another user: %w", orderID, models.ErrForbidden)
	}
	return order, nil
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.visibleOrder(c, c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	createdOrder, err := h.service.CreateOrder(callerID(c), req)
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// CheckoutRequest is the body of a checkout call.
type CheckoutRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

// HandleCheckout turns the caller's cart into an order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	order, err := h.service.Checkout(callerID(c), req.ShippingAddress)
	if err != nil {
		return respondError(c, "Checkout failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleCancelOrder cancels one of the caller's orders and returns its stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if _, err := h.visibleOrder(c, orderID); err != nil {
		return respondError(c, "Could not cancel order", err)
	}
	order, err := h.service.CancelOrder(orderID)
	if err != nil {
		return respondError(c, "Could not cancel order", err)
	}
	return c.JSON(order)
}

// UpdateOrderStatusRequest is the body of a status change.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	order, err := h.service.SetStatus(c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(order)
}

// HandleDeleteOrder deletes an order, returning its stock unless it completed.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		return respondError(c, "Could not delete order", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s deleted successfully", orderID),
	})
}
