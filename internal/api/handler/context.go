package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cugino/restaurant-auth/internal/api/middleware"
	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// identity is the caller attached to the context by the Auth middleware.
type identity struct {
	ID              int64
	Name            string
	Role            domain.Role
	EstablishmentID *int64
}

// callerIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call when the middleware did not run.
func callerIdentity(c echo.Context) (identity, error) {
	id, ok := c.Get(middleware.CtxUserID).(int64)
	if !ok {
		return identity{}, domain.NewAuthenticationError("missing authentication claims")
	}

	ident := identity{ID: id}
	ident.Name, _ = c.Get(middleware.CtxUserName).(string)
	if role, ok := c.Get(middleware.CtxUserRole).(string); ok {
		ident.Role = domain.Role(role)
	}
	if estID, ok := c.Get(middleware.CtxEstablishmentID).(int64); ok {
		ident.EstablishmentID = &estID
	}
	return ident, nil
}

// PathUserID extracts the target user id from the :id path parameter. The
// router hands it to the owner-or-elevated gate.
func PathUserID(c echo.Context) (int64, error) {
	return pathID(c, "id")
}

// pathID parses the named path parameter as a positive integer id.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name + " must be a positive number")
	}
	return id, nil
}
