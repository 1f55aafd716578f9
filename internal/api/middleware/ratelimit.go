package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cugino/restaurant-auth/internal/api/metrics"
)

// WindowCounter abstracts the fixed-window counter (Redis).
type WindowCounter interface {
	// Hit increments the counter for key in the current window and
	// reports whether the limit is exceeded.
	Hit(ctx context.Context, key string) (exceeded bool, err error)
}

// RateLimit rejects requests once the caller's fixed window is exhausted.
// Keyed by client IP and route path. Fails open when the counter backend
// is unavailable: losing rate limiting is preferable to losing logins.
func RateLimit(counter WindowCounter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + ":" + c.Path()

			exceeded, err := counter.Hit(c.Request().Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing request")
				return next(c)
			}
			if exceeded {
				metrics.RateLimitDropsTotal.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
