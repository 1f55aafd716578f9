package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cugino/restaurant-auth/internal/api/middleware"
	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the coded domain error taxonomy to its HTTP status hints.
//   - Logs every error with route, method and caller identity; unexpected
//     errors keep their cause in the log only.
//   - In dev mode, 5xx responses carry the underlying message to ease
//     debugging; in production they stay generic.
func NewHTTPErrorHandler(log zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c, dev)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, dev bool) (int, errorResponse) {
	evt := log.Warn().
		Str("method", c.Request().Method).
		Str("path", c.Path())
	if id, ok := c.Get(middleware.CtxUserID).(int64); ok {
		evt = evt.Int64("caller_id", id)
	}

	// Coded domain errors carry their own status hint.
	var de *domain.Error
	if errors.As(err, &de) {
		evt.Str("code", string(de.Code)).Msg(de.Message)
		return de.Status, errorResponse{Error: de.Message, Code: string(de.Code)}
	}

	// Password-policy violations enumerate every missing class.
	var wpe *domain.WeakPasswordError
	if errors.As(err, &wpe) {
		evt.Str("code", string(domain.CodeValidation)).Msg(wpe.Error())
		return http.StatusBadRequest, errorResponse{Error: wpe.Error(), Code: string(domain.CodeValidation)}
	}

	// Echo's own errors (404 from the router, rate limiting, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		evt.Int("status", he.Code).Msg(msg)
		return he.Code, errorResponse{Error: msg}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	msg := "internal server error"
	if dev {
		msg = err.Error()
	}
	return http.StatusInternalServerError, errorResponse{Error: msg, Code: string(domain.CodeInternal)}
}
