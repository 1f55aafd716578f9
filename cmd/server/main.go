package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cugino/restaurant-auth/internal/api"
	"github.com/cugino/restaurant-auth/internal/core/service"
	"github.com/cugino/restaurant-auth/internal/infrastructure/db/mysql"
	redisdb "github.com/cugino/restaurant-auth/internal/infrastructure/db/redis"
	"github.com/cugino/restaurant-auth/internal/infrastructure/queue"
	"github.com/cugino/restaurant-auth/internal/pkg/config"
	"github.com/cugino/restaurant-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// main is the top-level supervisor: any unrecoverable startup failure is
// logged and terminates the process.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration failed")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	db, err := mysql.Open(ctx, mysql.Config{
		User:     cfg.MySQL.User,
		Password: cfg.MySQL.Password,
		Host:     cfg.MySQL.Host,
		Port:     cfg.MySQL.Port,
		Database: cfg.MySQL.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connection failed")
	}
	defer db.Close()

	// Redis only backs the login rate limiter; the service starts without
	// it and degrades to unlimited logins.
	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login rate limiting disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	auditRepo := mysql.NewAuditRepository(db)
	dispatcher := queue.NewDispatcher(0, auditRepo, log)
	dispatcher.Start(ctx)

	userRepo := mysql.NewUserRepository(db)
	users := service.NewUserService(userRepo, dispatcher, cfg.JWTSecret, cfg.BcryptCost, log)

	e := api.NewRouter(db, rdb, users, cfg, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
