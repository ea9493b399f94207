package orderValidator

import (
	"coursehub/middleware"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Confirm validator middleware
func Confirm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			OrderID string `json:"orderId"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if strings.TrimSpace(reqData.OrderID) == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"orderId": "Order id is required!"})
		}

		c.Locals("orderID", strings.TrimSpace(reqData.OrderID))
		return c.Next()
	}
}

// Notification validates a payment processor callback. Only the order id is read from it.
func Notification() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			OrderID string `json:"order_id"`
		})
		if err := c.BodyParser(reqData); err != nil || strings.TrimSpace(reqData.OrderID) == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid notification!", nil)
		}

		c.Locals("orderID", strings.TrimSpace(reqData.OrderID))
		return c.Next()
	}
}
