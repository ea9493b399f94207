package authRoutes

import (
	authControllers "coursehub/controllers/auth"
	authValidators "coursehub/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes mounts signup, login and logout on group. limiter guards the credential endpoints.
func SetupAuthRoutes(group fiber.Router, h *authControllers.AuthController, limiter fiber.Handler) {
	group.Post("/signup", limiter, authValidators.Signup(), h.Signup)
	group.Post("/login", limiter, authValidators.Login(), h.Login)
	group.Get("/logout", h.Logout)
}
