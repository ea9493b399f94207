package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// CookieName is the http-only cookie mirroring the session token.
	CookieName = "jwt"
	TokenTTL   = 24 * time.Hour
)

// GenerateJWT signs a session token for the principal, valid for TokenTTL.
func GenerateJWT(userID uuid.UUID, role, email string, secret []byte, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(TokenTTL)
	claims := jwt.MapClaims{
		"userId": userID.String(),
		"role":   role,
		"email":  email,
		"iat":    now.Unix(),
		"exp":    expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT validates the token signature, expiry and role and returns the principal id.
func ParseJWT(tokenString string, secret []byte, role string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid token payload")
	}
	if claimRole, _ := claims["role"].(string); claimRole != role {
		return uuid.Nil, fmt.Errorf("token role %q does not match %q", claimRole, role)
	}
	rawID, _ := claims["userId"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return id, nil
}

// tokenFromRequest reads a bearer token from the Authorization header, then the session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return c.Cookies(CookieName)
}

// JWTMiddleware rejects requests without a valid token for role and stores the
// principal id in Locals("userId").
func JWTMiddleware(secret []byte, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}

		userID, err := ParseJWT(tokenString, secret, role)
		if err != nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
		}

		c.Locals("userId", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

// CurrentUserID returns the principal stored by JWTMiddleware.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("userId").(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// SetSessionCookie mirrors the token in an http-only, strict same-site cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
