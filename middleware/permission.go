package middleware

import (
	"coursehub/repository"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireAccount returns a middleware that checks the token subject still exists with the
// given role. It must run after JWTMiddleware; the loaded account lands in Locals("account").
func RequireAccount(users *repository.UserRepository, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		account, err := users.FindByID(c.UserContext(), userID, role)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "Account no longer exists!", nil)
			}
			return ErrorResponse(c, err)
		}

		c.Locals("account", account)
		return c.Next()
	}
}

// Guard authenticates one role: token first, then the account behind it.
type Guard struct {
	verify fiber.Handler
	load   fiber.Handler
}

func NewGuard(secret []byte, role string, users *repository.UserRepository) *Guard {
	return &Guard{
		verify: JWTMiddleware(secret, role),
		load:   RequireAccount(users, role),
	}
}

// With prepends the guard to handlers for route registration.
func (g *Guard) With(handlers ...fiber.Handler) []fiber.Handler {
	return append([]fiber.Handler{g.verify, g.load}, handlers...)
}
