package userRoutes

import (
	authControllers "coursehub/controllers/auth"
	orderControllers "coursehub/controllers/order"
	"coursehub/middleware"
	"coursehub/routers/authRoutes"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(api fiber.Router, auth *authControllers.AuthController, orders *orderControllers.OrderController, user *middleware.Guard, limiter fiber.Handler) {
	userGroup := api.Group("/user")
	authRoutes.SetupAuthRoutes(userGroup, auth, limiter)

	userGroup.Get("/purchases", user.With(orders.Purchases)...)
}
