package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"crud-admin/internal/engine"
)

const principalKey = "principal"

// Middleware validates the bearer token and stores the caller's Principal.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		c.Locals(principalKey, &Principal{ID: claims.Subject, Roles: claims.Roles})
		return c.Next()
	}
}

// RequireRole rejects callers whose token lacks the role. Mount it after Middleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return engine.UnauthorizedError("Missing auth token")
		}
		if !p.HasRole(role) {
			return engine.ForbiddenError(role + " role required")
		}
		return c.Next()
	}
}

// GetPrincipal returns the authenticated caller, or nil.
func GetPrincipal(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}
