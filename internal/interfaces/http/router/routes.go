package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaultledger/backend/internal/infrastructure/logger"
	"github.com/vaultledger/backend/internal/interfaces/http/handler"
	"github.com/vaultledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers of the ledger API
type Handlers struct {
	Vault        *handler.VaultHandler
	Movement     *handler.MovementHandler
	Transfer     *handler.TransferHandler
	Distribution *handler.DistributionHandler
	Order        *handler.OrderHandler
	Integrity    *handler.IntegrityHandler
	System       *handler.SystemHandler
}

// EngineConfig configures the middleware chain of the engine
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	MaxBodySize    int64
	TrustedProxies []string
}

// LedgerRoutes returns the route groups served under /api/v1
func LedgerRoutes(h Handlers) []RouteRegistrar {
	vaults := NewDomainGroup("/vaults").
		GET("", h.Vault.Snapshot).
		GET("/:id", h.Vault.GetByID).
		POST("/:id/credit", h.Vault.Credit).
		POST("/:id/debit", h.Vault.Debit).
		GET("/:id/replay", h.Vault.Replay)

	movements := NewDomainGroup("/movements").
		GET("", h.Movement.List)

	transfers := NewDomainGroup("/transfers").
		POST("", h.Transfer.Create)

	sales := NewDomainGroup("/sales").
		POST("/:id/distribution", h.Distribution.Distribute).
		POST("/:id/returns", h.Distribution.Return)

	orders := NewDomainGroup("/orders").
		POST("", h.Order.Register).
		GET("/:id", h.Order.GetByID).
		POST("/:id/payments", h.Order.ApplyPayment)

	parties := NewDomainGroup("/parties").
		GET("/:id", h.Order.GetParty)

	integrity := NewDomainGroup("/integrity").
		GET("", h.Integrity.Validate)

	cashCuts := NewDomainGroup("/cash-cuts").
		GET("/latest", h.Integrity.LatestCashCut)

	return []RouteRegistrar{vaults, movements, transfers, sales, orders, parties, integrity, cashCuts}
}

// NewEngine builds the gin engine with the middleware chain and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
	)
	if cfg.HTTPMetrics != nil {
		engine.Use(cfg.HTTPMetrics.Middleware())
	}
	bodyLimit := cfg.MaxBodySize
	if bodyLimit <= 0 {
		bodyLimit = middleware.DefaultBodyLimit
	}
	engine.Use(middleware.BodyLimit(bodyLimit))

	engine.GET("/health", h.System.Health)
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	NewRouter(engine).Register(LedgerRoutes(h)...).Setup()
	return engine, nil
}
