package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/auth"
	"github.com/erp/ordersync/internal/infrastructure/cache"
	"github.com/erp/ordersync/internal/infrastructure/config"
	"github.com/erp/ordersync/internal/infrastructure/erpclient"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/infrastructure/persistence"
	"github.com/erp/ordersync/internal/infrastructure/reference"
	"github.com/erp/ordersync/internal/infrastructure/storage"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/erp/ordersync/internal/interfaces/http/handler"
	"github.com/erp/ordersync/internal/interfaces/http/middleware"
	"github.com/erp/ordersync/internal/interfaces/http/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ordersync:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log = telemetry.Bridge(log, telemetry.NewZapOTELCore(
		cfg.Telemetry.ServiceName, providers.LoggerProvider(), logger.ParseLevel(cfg.Log.Level)))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Warn("Profiler not started", zap.Error(err))
	} else {
		defer func() { _ = profiler.Stop() }()
		if profiler.IsEnabled() {
			providers.EnableSpanProfiles()
		}
	}

	log.Info("Starting order sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(ctx, &cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbSystem := cfg.Database.Driver
	if dbSystem == "" {
		dbSystem = "postgres"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}
	meter := providers.Meter("ordersync")
	if err := telemetry.RegisterPoolMetrics(meter, db.DB); err != nil {
		log.Warn("Connection pool metrics not registered", zap.Error(err))
	}

	records := persistence.NewGormSyncRecordRepository(db.DB)

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:         meter,
		Logger:        log,
		StateProvider: records,
	})
	if err != nil {
		return fmt.Errorf("initialize sync metrics: %w", err)
	}
	syncMetrics.StartPeriodicCollection(ctx, time.Minute)
	defer syncMetrics.Stop()

	// Remote ERP
	client, err := erpclient.New(erpclient.Config{
		BaseURL:      cfg.Remote.BaseURL,
		Token:        cfg.Remote.Token,
		Timeout:      cfg.Remote.Timeout,
		RateLimitRPS: cfg.Remote.RateLimitRPS,
		RateBurst:    cfg.Remote.RateBurst,
		UserAgent:    cfg.App.Name + "/" + cfg.App.Version,
	}, erpclient.WithCallObserver(syncMetrics), erpclient.WithLogger(log))
	if err != nil {
		return fmt.Errorf("initialize ERP client: %w", err)
	}
	gateway := client.Gateway()

	settings, err := appintegration.LoadSettings(cfg.Sync.SettingsValues(), cfg.Sync.CustomBodyFieldsMapFile)
	if err != nil {
		return fmt.Errorf("load sync settings: %w", err)
	}

	// Order lock
	lock, lockBackend, err := cache.NewOrderLockFactory(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Close() }()

	// Payload archive
	var archive integration.PayloadArchive = storage.NoopArchive{}
	if cfg.Archive.Enabled {
		s3Archive, err := storage.NewS3PayloadArchive(ctx, storage.ArchiveConfig{
			Endpoint:     cfg.Archive.Endpoint,
			Bucket:       cfg.Archive.Bucket,
			AccessKey:    cfg.Archive.AccessKey,
			SecretKey:    cfg.Archive.SecretKey,
			Region:       cfg.Archive.Region,
			UsePathStyle: cfg.Archive.UsePathStyle,
			Prefix:       cfg.Archive.Prefix,
		}, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("initialize payload archive: %w", err)
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("prepare archive bucket: %w", err)
		}
		archive = s3Archive
	}

	// Application
	reconciler := appintegration.NewOrderReconciler(&gateway, reference.New(), log)
	syncService := appintegration.NewOrderSyncService(reconciler, records, lock, settings, appintegration.SyncOptions{
		LockTTL:          cfg.Sync.LockTTL,
		BatchConcurrency: cfg.Sync.BatchConcurrency,
	}, log)
	syncService.SetPayloadArchive(archive)
	syncService.SetSyncMetrics(syncMetrics)
	if cfg.Sync.DepositsEnabled {
		syncService.SetDepositRecorder(appintegration.NewDepositRecorder(gateway.CustomerDeposits, log))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	health := handler.NewHealthHandler(cfg.App.Version, lockBackend).
		AddCheck("database", db.Ping)
	if pinger, ok := lock.(interface{ Ping(context.Context) error }); ok {
		health.AddCheck("redis", pinger.Ping)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		TracingEnabled: providers.IsEnabled(),
		Meter:          meter,
		RateLimiter:    limiter,
	}, router.Dependencies{
		Logger: log,
		Tokens: auth.NewTokenService(cfg.Webhook.Secret, cfg.Webhook.Issuer, 0),
		Sync:   handler.NewSyncHandler(syncService, cfg.Sync.MaxBatchSize),
		Health: health,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited")
	return nil
}
