package main

import (
	"net/http"
	"os"

	"civicserve-backend/internal/handlers"
	"civicserve-backend/internal/middleware"
	"civicserve-backend/internal/services"
	"civicserve-backend/internal/transformers"
	"civicserve-backend/internal/validators"
	"civicserve-backend/pkg/arcgis"
	"civicserve-backend/pkg/cache"
	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/esindex"
	"civicserve-backend/pkg/httputil"
	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"
	"civicserve-backend/pkg/open311"
	"civicserve-backend/pkg/salesforce"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// App wires configuration, upstream clients, services, and the web layer.
type App struct {
	Config         *config.Config
	Router         *gin.Engine
	AddressHandler *handlers.AddressHandler
	CaseHandler    *handlers.CaseHandler
	RateLimiter    *middleware.RateLimiter
	Server         *http.Server
}

// Create and initialize a new App instance
func NewApp(cfg *config.Config) *App {
	app := &App{Config: cfg}

	// Initialize infrastructure
	app.initializeCache()
	app.initializeMetrics()
	app.initializeRateLimiter()

	// Initialize upstream clients and business logic
	app.initializeDependencies()

	// Initialize web layer
	app.initializeRouter()

	return app
}

// initialize the optional Redis cache
func (a *App) initializeCache() {
	if err := cache.InitRedis(a.Config); err != nil {
		logger.GlobalLogger.Errorf("Failed to initialize Redis: %v", err)
		os.Exit(1)
	}
}

// initialize Prometheus metrics
func (a *App) initializeMetrics() {
	metrics.Init()
}

// initialize the rate limiter
func (a *App) initializeRateLimiter() {
	a.RateLimiter = middleware.NewRateLimiter(rate.Limit(100/60.0), 10)
	go a.RateLimiter.Cleanup()
}

// initialize all dependencies
func (a *App) initializeDependencies() {
	// shared outbound HTTP client; all upstream traffic follows one proxy
	// policy
	httpClient, err := httputil.NewClient(a.Config.HTTPProxy, 0)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to build outbound HTTP client: %v", err)
		os.Exit(1)
	}

	// upstream clients
	session := salesforce.NewSession(a.Config, httpClient)
	open311Client, err := open311.NewClient(a.Config, session)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to build Open311 client: %v", err)
		os.Exit(1)
	}
	arcgisClient, err := arcgis.NewClient(a.Config, httpClient)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to build ArcGIS client: %v", err)
		os.Exit(1)
	}
	indexClient, err := esindex.NewClient(a.Config, httpClient)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to build case index client: %v", err)
		os.Exit(1)
	}

	// transformers and validators
	addrTrans := transformers.NewAddressTransformer()
	caseValidator := validators.NewCaseValidator()

	// services
	resolver := services.NewAddressResolver(arcgisClient, addrTrans)
	caseService := services.NewCaseLookupService(open311Client, indexClient, addrTrans, caseValidator)

	// handlers
	a.AddressHandler = handlers.NewAddressHandler(resolver)
	a.CaseHandler = handlers.NewCaseHandler(caseService)
}

// set up the Gin router with middleware and routes
func (a *App) initializeRouter() {
	a.Router = gin.New()
	a.setupMiddleware()
	a.setupRoutes()
}

// cleanup operations
func (a *App) cleanup() {
	cache.CloseRedis()
}
