package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/config"
	"github.com/vaultledger/backend/internal/infrastructure/event"
	"github.com/vaultledger/backend/internal/infrastructure/lock"
	"github.com/vaultledger/backend/internal/infrastructure/logger"
	"github.com/vaultledger/backend/internal/infrastructure/migration"
	"github.com/vaultledger/backend/internal/infrastructure/persistence"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"github.com/vaultledger/backend/internal/infrastructure/scheduler"
	"github.com/vaultledger/backend/internal/infrastructure/telemetry"
	"github.com/vaultledger/backend/internal/interfaces/http/handler"
	"github.com/vaultledger/backend/internal/interfaces/http/middleware"
	"github.com/vaultledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting vault ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	metrics := telemetry.NewLedgerMetrics()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	locker, closeLocker, err := lock.NewFromConfig(ctx, cfg.Ledger, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("init locker: %w", err)
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Error closing lock backend", zap.Error(err))
		}
	}()

	targets, err := ledger.ParseSplitTargets(cfg.Ledger.CostVault, cfg.Ledger.FreightVault, cfg.Ledger.ProfitVault)
	if err != nil {
		return fmt.Errorf("split targets: %w", err)
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appledger.NewAuditHandler(scope, log))
	bus.Subscribe(appledger.NewLossAlertHandler(log))
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	opts := appledger.Options{Observer: metrics, Publisher: bus, Logger: log}
	vaults := appledger.NewVaultService(scope, locker, opts)
	movements := appledger.NewMovementService(scope, opts)
	validator := appledger.NewIntegrityValidator(scope, opts)
	cashCuts := appledger.NewCashCutService(scope, validator, opts, appledger.WithOverdueDebtAlert(cfg.CashCut.OverdueAfter))
	distribution := appledger.NewDistributionService(scope, locker, targets, opts)
	returns := appledger.NewReturnService(scope, locker, targets, opts)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		HTTPMetrics:    middleware.NewHTTPMetrics(metrics.Registry),
		MetricsHandler: metricsHandler(cfg, metrics),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		Vault:        handler.NewVaultHandler(vaults, movements),
		Movement:     handler.NewMovementHandler(movements),
		Transfer:     handler.NewTransferHandler(appledger.NewTransferService(scope, locker, opts)),
		Distribution: handler.NewDistributionHandler(distribution, returns),
		Order:        handler.NewOrderHandler(appledger.NewDebtReconciler(scope, locker, opts)),
		Integrity:    handler.NewIntegrityHandler(validator, cashCuts),
		System:       handler.NewSystemHandler(db, version),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.CashCut.Enabled {
		trigger, err := scheduler.NewCashCutTrigger(scheduler.CashCutTriggerConfig{
			Interval: cfg.CashCut.Interval,
			Timeout:  cfg.CashCut.Timeout,
		}, cashCuts, log)
		if err != nil {
			return fmt.Errorf("init cash-cut trigger: %w", err)
		}
		g.Go(func() error {
			return trigger.Run(gctx)
		})
	}

	return g.Wait()
}

// openDatabase connects, applies the schema and makes sure the vault rows exist.
// PostgreSQL gets the versioned migrations; sqlite is created from the models.
func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        telemetry.DBSystemFor(db.DB.Dialector.Name()),
	}, log)
	if err := plugin.RegisterOtelGorm(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db tracing: %w", err)
	}

	if err := applySchema(cfg, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	created, err := persistence.BootstrapVaults(ctx, db.DB, time.Now())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap vaults: %w", err)
	}
	log.Info("Vaults ready", zap.Int("created", created))
	return db, nil
}

func applySchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}

	// golang-migrate closes the connection it is handed, so it gets its own
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func metricsHandler(cfg *config.Config, metrics *telemetry.LedgerMetrics) http.Handler {
	if !cfg.Telemetry.MetricsEnabled {
		return nil
	}
	return metrics.Handler()
}
