package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/accounts"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// RequireRole ensures the caller holds exactly the given role. There is
// no hierarchy: requiring employee does not admit an admin.
func RequireRole(required accounts.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Role != required {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal is present without checking roles.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
