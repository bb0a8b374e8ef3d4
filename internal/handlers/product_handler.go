package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// Reads are open to any authenticated caller; catalog changes need an admin.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/categories", h.HandleGetCategoryTree)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Get("/:id/categories", h.HandleGetProductCategories)

	admin := middleware.AdminRequired()
	productRoutes.Post("/", admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", admin, h.HandleDeleteProduct)
	productRoutes.Post("/:id/restock", admin, h.HandleRestock)
}

// HandleGetProducts lists the catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleGetProductCategories returns the category tree of one product.
func (h *ProductHandler) HandleGetProductCategories(c *fiber.Ctx) error {
	tree, err := h.service.ProductCategories(c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product categories", err)
	}
	return c.JSON(tree)
}

// HandleGetCategoryTree returns the merged category tree of the catalog.
func (h *ProductHandler) HandleGetCategoryTree(c *fiber.Ctx) error {
	tree, err := h.service.CategoryTree()
	if err != nil {
		return respondError(c, "Could not build category tree", err)
	}
	return c.JSON(tree)
}

// HandleCreateProduct creates a product with its initial stock.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, err)
	}
	if err := h.service.CreateProduct(&product); err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates catalog fields and price. A stock value in
// the body is ignored.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, err)
	}
	product.ID = c.Params("id")
	product.Stock = 0
	if err := h.service.UpdateProduct(&product); err != nil {
		return respondError(c, "Could not update product", err)
	}
	updated, err := h.service.GetProductByID(product.ID)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Product " + id + " deleted successfully",
	})
}

// RestockRequest is the body of a restock call.
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

// HandleRestock adds received units to a product's stock.
func (h *ProductHandler) HandleRestock(c *fiber.Ctx) error {
	var req RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	product, err := h.service.Restock(c.Params("id"), req.Quantity)
	if err != nil {
		return respondError(c, "Could not restock product", err)
	}
	return c.JSON(product)
}
