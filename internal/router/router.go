package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-pos/internal/config"
	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/middleware"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// New builds the Echo instance with every route of the service.  rdb may
// be nil, in which case rate limiting and the report cache are disabled.
func New(cfg config.Config, rdb *redis.Client, a *handler.AuthHandler, p *handler.POSHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger())

	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb)
	RegisterRoutes(e)
	RegisterAuth(e, a, cfg.JWTSecret, limit)
	RegisterPOS(e, p, cfg.JWTSecret, limit)
	RegisterAdmin(e, p, cfg.JWTSecret, limit, middleware.NewRedisCache(cfg.Cache, rdb))
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the login endpoint and the current-user endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleWaiter),
		limit,
	)
}
