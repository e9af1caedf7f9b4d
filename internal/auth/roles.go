package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/academic-erp/internal/domain"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

// Authorize allows the principal iff it holds role. A nil principal is always denied.
func Authorize(principal *Principal, role domain.Role) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if !principal.Roles.Has(role) {
		return ErrInsufficientRole
	}
	return nil
}

// RequireRole guards a route with Authorize using the principal set by the RequestGate.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		switch err := Authorize(principal, role); err {
		case nil:
			return c.Next()
		case ErrUnauthenticated:
			return apperrors.NewUnauthorized("authentication required")
		default:
			return apperrors.NewForbidden(string(role) + " role required")
		}
	}
}
