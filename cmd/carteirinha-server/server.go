package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/config"
	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/domain/admin"
	"github.com/policardmed/carteirinha/internal/domain/healthcard"
	"github.com/policardmed/carteirinha/internal/domain/patient"
	"github.com/policardmed/carteirinha/internal/domain/payment"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/cache"
	"github.com/policardmed/carteirinha/internal/platform/db"
	"github.com/policardmed/carteirinha/internal/platform/logging"
	"github.com/policardmed/carteirinha/internal/platform/middleware"
	"github.com/policardmed/carteirinha/internal/platform/websocket"
)

const shutdownTimeout = 10 * time.Second

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.IsDev(),
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	c := openCache(ctx, cfg, logger)
	defer c.Close()

	hub := websocket.NewHub(logger)
	e := newServer(cfg, logger, pool, c, hub)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// closableCache is the cache plus the connection it may hold.
type closableCache interface {
	cache.Cache
	Close() error
}

type nopCache struct{ cache.Nop }

func (nopCache) Close() error { return nil }

// openCache connects to Redis when REDIS_URL is set. A Redis outage at boot
// degrades to no caching rather than refusing to start.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) closableCache {
	if cfg.RedisURL == "" {
		return nopCache{}
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL, "carteirinha")
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
		return nopCache{}
	}
	logger.Info().Msg("connected to redis")
	return rc
}

// newServer assembles the echo instance: middleware chain, domain services
// and routes, mounted both at the root and under /api.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, c cache.Cache, hub *websocket.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}

	tokens := auth.NewTokens(cfg.SigningKey(), cfg.JWTExpiration)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID, "X-Tenant-ID"},
		ExposeHeaders: []string{"X-Total-Count", "Link", echo.HeaderXRequestID},
	}))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{Tokens: tokens, Skipper: auth.AuthSkipper}))
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant, func(c echo.Context) bool {
		return auth.IsHealthPath(c.Path())
	}))
	e.Use(middleware.Audit(logger))

	users := account.NewUserRepo(pool)
	payments := payment.NewPaymentRepo(pool)

	accountSvc := account.NewService(users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, c)
	patientSvc := patient.NewService(patient.NewPatientRepo(pool), users)
	cardSvc := healthcard.NewService(healthcard.NewHealthCardRepo(pool))
	paymentSvc := payment.NewService(payments, hub)
	adminSvc := admin.NewService(users, payments, paymentSvc, c)

	handlers := []routeRegistrar{
		account.NewHandler(accountSvc),
		patient.NewHandler(patientSvc),
		healthcard.NewHandler(cardSvc),
		payment.NewHandler(paymentSvc),
		admin.NewHandler(adminSvc),
		websocket.NewHandler(hub, cfg.CORSOrigins),
	}
	for _, prefix := range []string{"", "/api"} {
		e.GET(prefix+"/health", db.LivenessHandler(version))
		e.GET(prefix+"/health/db", db.HealthHandler(pool))
		registerRoutes(e.Group(prefix), handlers...)
	}
	return e
}

func registerRoutes(g *echo.Group, handlers ...routeRegistrar) {
	for _, h := range handlers {
		h.RegisterRoutes(g)
	}
}
