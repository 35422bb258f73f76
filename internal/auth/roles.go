package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/semprecheio/auth-api/internal/domain"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

// RequireRoles ensures the principal's role is in the allow-list.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNoToken()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewInsufficientPermissions()
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the auth middleware ran and attached a principal.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewNoToken()
		}
		return c.Next()
	}
}
