package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:productId", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
}

// AddCartItemRequest is the body of an add-to-cart call.
type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest is the body of a quantity change.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func callerID(c *fiber.Ctx) string {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return ""
	}
	return identity.UserID
}

// HandleGetCart returns the caller's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	view, err := h.service.GetCart(callerID(c))
	if err != nil {
		return respondError(c, "Could not retrieve cart", err)
	}
	return c.JSON(view)
}

// HandleAddItem adds a product to the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	view, err := h.service.AddItem(callerID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, "Could not add item to cart", err)
	}
	return c.JSON(view)
}

// HandleUpdateItem replaces the quantity of a cart line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	view, err := h.service.UpdateQuantity(callerID(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return respondError(c, "Could not update cart item", err)
	}
	return c.JSON(view)
}

// HandleRemoveItem removes a line from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	view, err := h.service.RemoveItem(callerID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, "Could not remove cart item", err)
	}
	return c.JSON(view)
}

// HandleClearCart empties the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(callerID(c)); err != nil {
		return respondError(c, "Could not clear cart", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
