package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"civicserve-backend/pkg/cache"
	"civicserve-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"
)

// setupRoutes configures all routes
func (a *App) setupRoutes() {
	a.setupOperationalRoutes()
	a.setupHealthCheck()
	a.setupAPIRoutes()
}

// setupOperationalRoutes exposes metrics and profiling endpoints
func (a *App) setupOperationalRoutes() {
	// Expose pprof profiling endpoints (disable in production)
	if os.Getenv("ENV") != "production" {
		a.Router.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	// Expose Prometheus metrics endpoint
	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// setupHealthCheck configures health check endpoint. The upstream systems
// are not pinged: their availability is their own concern and a slow
// geocoder should not flap this service's health.
func (a *App) setupHealthCheck() {
	a.Router.GET("/health", func(c *gin.Context) {
		if cache.Enabled() {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()

			if _, err := cache.RedisClient.Ping(ctx).Result(); err != nil {
				logger.GlobalLogger.Errorf("Redis ping failed: %v", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Redis unavailable"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// setupAPIRoutes configures API routes
func (a *App) setupAPIRoutes() {
	api := a.Router.Group("/api")
	{
		address := api.Group("/address")
		{
			address.GET("/search", a.AddressHandler.SearchAddress)
			address.GET("/reverse", a.AddressHandler.ReverseGeocode)
		}

		api.GET("/buildings/:id/units", a.AddressHandler.GetUnits)

		api.GET("/services", a.CaseHandler.GetServices)
		api.GET("/services/:code", a.CaseHandler.GetService)

		cases := api.Group("/cases")
		{
			cases.GET("", a.CaseHandler.SearchCases)
			cases.GET("/:id", a.CaseHandler.GetCase)
			cases.POST("", a.CaseHandler.CreateCase)
		}
	}
}
