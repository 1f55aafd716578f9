package middleware

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/service"
)

// Context keys populated by Auth / OptionalAuth.
const (
	CtxUserID          = "user_id"
	CtxUserName        = "user_name"
	CtxUserRole        = "user_role"
	CtxEstablishmentID = "establishment_id"
)

// Auth validates the Bearer token and injects the identity claims into the
// echo context. Only the `Authorization: Bearer <jwt>` transport is
// accepted. Expired, not-yet-valid and malformed tokens map to distinct
// 401 messages.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c, jwtSecret)
			if err != nil {
				return err
			}
			applyClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth but silently proceeds without attaching
// identity on any failure. For endpoints that render differently for
// anonymous and authenticated callers but never require authentication.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := parseBearer(c, jwtSecret); err == nil {
				applyClaims(c, claims)
			}
			return next(c)
		}
	}
}

func parseBearer(c echo.Context, jwtSecret string) (jwt.MapClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, domain.NewAuthenticationError("missing authentication token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, domain.NewAuthenticationError("invalid token format, use: Bearer <token>")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	},
		jwt.WithIssuer(service.TokenIssuer),
		jwt.WithAudience(service.TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, domain.ErrTokenNotYetValid
		default:
			return nil, domain.ErrTokenInvalid
		}
	}
	return claims, nil
}

func applyClaims(c echo.Context, claims jwt.MapClaims) {
	if id, ok := claims["user_id"].(float64); ok {
		c.Set(CtxUserID, int64(id))
	}
	if name, ok := claims["name"].(string); ok {
		c.Set(CtxUserName, name)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(CtxUserRole, role)
	}
	if estID, ok := claims["establishment_id"].(float64); ok {
		c.Set(CtxEstablishmentID, int64(estID))
	}
}
