package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// RBAC enforces that the attached identity's role is in the allow-list.
// Assumes Auth ran earlier in the chain.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRole).(string)
			if role == "" {
				return domain.NewAuthenticationError("not authenticated")
			}
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// TargetIDFunc extracts the id of the user a request operates on.
type TargetIDFunc func(c echo.Context) (int64, error)

// OwnerOrRole allows the request when the caller's role is in elevated, or
// when the caller's own id equals the target id. Anything else is a 403.
func OwnerOrRole(targetID TargetIDFunc, elevated ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(elevated))
	for _, r := range elevated {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			callerID, ok := c.Get(CtxUserID).(int64)
			if !ok {
				return domain.NewAuthenticationError("not authenticated")
			}

			role, _ := c.Get(CtxUserRole).(string)
			if _, ok := allowed[role]; ok {
				return next(c)
			}

			target, err := targetID(c)
			if err != nil {
				return err
			}
			if callerID == target {
				return next(c)
			}
			return domain.ErrOwnResourcesOnly
		}
	}
}
