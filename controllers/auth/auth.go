package authController

import (
	"coursehub/middleware"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
)

// AuthController serves signup, login and logout for one role.
type AuthController struct {
	identity     *services.IdentityService
	role         string
	secureCookie bool
}

func NewAuthController(identity *services.IdentityService, role string, secureCookie bool) *AuthController {
	return &AuthController{identity: identity, role: role, secureCookie: secureCookie}
}

func (h *AuthController) Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*services.SignupInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := h.identity.Signup(c.UserContext(), h.role, *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Signup successful", user)
}

func (h *AuthController) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*services.LoginInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	session, err := h.identity.Login(c.UserContext(), h.role, *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	middleware.SetSessionCookie(c, session.Token, session.ExpiresAt, h.secureCookie)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful", fiber.Map{
		"user":      session.User,
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout clears the session cookie. Tokens are stateless and stay valid until they expire.
func (h *AuthController) Logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.secureCookie)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully", nil)
}
