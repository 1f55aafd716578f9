package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/cugino/restaurant-auth/internal/api/handler"
	"github.com/cugino/restaurant-auth/internal/api/middleware"
	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/ports"
	redisdb "github.com/cugino/restaurant-auth/internal/infrastructure/db/redis"
	"github.com/cugino/restaurant-auth/internal/infrastructure/http/handlers"
	"github.com/cugino/restaurant-auth/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *sql.DB, rdb *redis.Client, users ports.UserService, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.Env == "development")

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("restaurant_auth"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(users)
	userHandler := handler.NewUserHandler(users)
	authRequired := middleware.Auth(cfg.JWTSecret)

	var loginMiddleware []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled && rdb != nil {
		counter := redisdb.NewFixedWindow(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		loginMiddleware = append(loginMiddleware, middleware.RateLimit(counter, log))
	}

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, loginMiddleware...)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authHandler.Logout, authRequired)
	auth.POST("/change-password", authHandler.ChangePassword, authRequired)
	auth.GET("/me", authHandler.Me, authRequired)

	// --- User management routes ---
	elevated := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	ownerOrElevated := middleware.OwnerOrRole(handler.PathUserID, domain.RoleAdmin, domain.RoleManager)

	usersGroup := e.Group("/users", authRequired)
	usersGroup.GET("", userHandler.List, elevated)
	usersGroup.POST("", userHandler.Create, elevated)
	usersGroup.GET("/role/:role", userHandler.ListByRole, elevated)
	usersGroup.GET("/establishment/:id", userHandler.ListByEstablishment, elevated)
	usersGroup.GET("/:id", userHandler.Get, ownerOrElevated)
	usersGroup.PUT("/:id", userHandler.Update, ownerOrElevated)
	usersGroup.GET("/:id/permissions", userHandler.Permissions, ownerOrElevated)
	usersGroup.DELETE("/:id", userHandler.Delete, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
