package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidStatusTransition),
		errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON error body. Internal failures are logged
// and their details are not sent to the client.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %s: %v", c.Method(), c.Path(), message, err)
		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}
	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
	}
	var shortage *models.InsufficientStockError
	if errors.As(err, &shortage) {
		body["product_id"] = shortage.ProductID
		body["requested"] = shortage.Requested
		body["available"] = shortage.Available
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}
