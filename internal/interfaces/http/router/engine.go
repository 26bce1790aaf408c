package router

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/erp/ordersync/internal/infrastructure/auth"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/interfaces/http/handler"
	"github.com/erp/ordersync/internal/interfaces/http/middleware"
)

// EngineConfig tunes the middleware chain.
type EngineConfig struct {
	ServiceName    string
	MaxBodySize    int64
	RequestTimeout time.Duration
	TrustedProxies []string
	// TracingEnabled installs otelgin. TracingOptions are passed through.
	TracingEnabled bool
	TracingOptions []otelgin.Option
	// Meter enables HTTP metrics when set.
	Meter metric.Meter
	// RateLimiter throttles the order endpoints when set.
	RateLimiter *middleware.RateLimiter
}

// Dependencies are the handlers and services the engine routes to.
type Dependencies struct {
	Logger *zap.Logger
	Tokens *auth.TokenService
	Sync   *handler.SyncHandler
	Health *handler.HealthHandler
}

// NewEngine builds the gin engine:
//
//	GET  /health                           dependency health
//	GET  /api/v1/health                    same, under the API prefix
//	GET  /api/v1/ping                      liveness
//	POST /api/v1/orders/sync               reconcile one order
//	POST /api/v1/orders/sync/batch         reconcile many orders
//	GET  /api/v1/orders/:external_id/sync  ledger entry of one order
//	GET  /api/v1/sync-records              ledger listing
//
// Order and ledger routes require a webhook token when a secret is configured.
func NewEngine(cfg EngineConfig, deps Dependencies) (*gin.Engine, error) {
	if deps.Sync == nil || deps.Health == nil {
		return nil, errors.New("router: sync and health handlers are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ordersync"
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(deps.Logger), middleware.RequestID())
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName, cfg.TracingOptions...), middleware.SpanEnricher())
	}
	engine.Use(logger.GinMiddleware(deps.Logger))
	if cfg.Meter != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Meter))
	}
	engine.Use(middleware.Secure())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	engine.Use(middleware.Timeout(cfg.RequestTimeout))

	engine.GET("/health", deps.Health.Health)

	protected := []gin.HandlerFunc{
		middleware.WebhookAuth(middleware.WebhookAuthConfig{Tokens: deps.Tokens, Logger: deps.Logger}),
	}
	if cfg.RateLimiter != nil {
		protected = append([]gin.HandlerFunc{middleware.RateLimit(cfg.RateLimiter)}, protected...)
	}

	orders := NewDomainGroup("orders", "/orders").Use(protected...).
		POST("/sync", deps.Sync.SyncOrder).
		POST("/sync/batch", deps.Sync.SyncBatch).
		GET("/:external_id/sync", deps.Sync.GetSyncStatus)

	ledger := NewDomainGroup("ledger", "/sync-records").Use(protected...).
		GET("", deps.Sync.ListSyncRecords)

	system := NewDomainGroup("system", "").
		GET("/health", deps.Health.Health).
		GET("/ping", deps.Health.Ping)

	routes := NewRouter(engine).
		Register(system).
		Register(orders).
		Register(ledger).
		Setup()
	for _, route := range routes {
		deps.Logger.Debug("route mounted",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path))
	}

	return engine, nil
}
