package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	// Core pipeline. Scan and recycle hit the chain and the router, so both
	// sit behind a shared per-instance rate limit.
	pipeline := v1.Group("")
	pipeline.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(5), // 5 requests per second
		Burst:     10,
		ExpiresIn: 2 * time.Minute,
	})))
	pipeline.POST("/scan", h.Scan)       // Wallet portfolio scan
	pipeline.POST("/recycle", h.Recycle) // Build fee-bearing swap batch

	// Checkout history
	v1.GET("/checkouts/recent", h.RecentCheckouts)

	// Scam-mint denylist CRUD
	denyGroup := v1.Group("/denylist")
	denyGroup.GET("", h.DenylistList)
	denyGroup.POST("", h.DenylistAdd)
	denyGroup.DELETE("/:mint", h.DenylistRemove)

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,
		ExpiresIn: 2 * time.Minute,
	})))
	aigroup.POST("/ask", h.AIAsk)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
