package orderRoutes

import (
	controllers "coursehub/controllers/order"
	"coursehub/middleware"
	validators "coursehub/validators/order"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(api fiber.Router, h *controllers.OrderController, user *middleware.Guard) {
	orderGroup := api.Group("/order")

	orderGroup.Post("/confirm", user.With(validators.Confirm(), h.Confirm)...)
	// called by the payment processor, authenticated by re-reading the order status from it
	orderGroup.Post("/notification", validators.Notification(), h.Notification)
}
