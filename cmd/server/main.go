package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	biddingapp "github.com/bidhub/backend/internal/application/bidding"
	catalogapp "github.com/bidhub/backend/internal/application/catalog"
	"github.com/bidhub/backend/internal/application/catalogsync"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/cache"
	"github.com/bidhub/backend/internal/infrastructure/config"
	"github.com/bidhub/backend/internal/infrastructure/event"
	"github.com/bidhub/backend/internal/infrastructure/feed"
	"github.com/bidhub/backend/internal/infrastructure/logger"
	"github.com/bidhub/backend/internal/infrastructure/persistence"
	"github.com/bidhub/backend/internal/infrastructure/scheduler"
	"github.com/bidhub/backend/internal/infrastructure/telemetry"
	"github.com/bidhub/backend/internal/interfaces/http/handler"
	"github.com/bidhub/backend/internal/interfaces/http/middleware"
	"github.com/bidhub/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting bidhub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewBidhubMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create metric instruments", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbSystem := "postgresql"
		if cfg.Database.Driver == "sqlite" {
			dbSystem = "sqlite"
		}
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Floor board
	boardFactory := cache.NewFloorBoardFactory(cfg.FloorBoard, cfg.Redis, cache.WithLogger(log))
	board, closeBoard, err := boardFactory.CreateBoard(rootCtx)
	if err != nil {
		log.Fatal("Failed to create floor board", zap.Error(err))
	}
	defer func() {
		if err := closeBoard(); err != nil {
			log.Warn("Error closing floor board", zap.Error(err))
		}
	}()

	// Event stream
	publisher, closePublisher := newEventPublisher(rootCtx, cfg.NATS, log)

	// Repositories
	itemRepo := persistence.NewGormCatalogItemRepository(db.DB)
	bidderRepo := persistence.NewGormBidderRepository(db.DB)
	ledger := persistence.NewGormBidLedger(db.DB)
	reconciler := persistence.NewGormCatalogReconciler(db.DB, log)

	// Catalog sync
	feedClient, err := feed.NewClient(feed.Config{
		BaseURL:           cfg.Feed.BaseURL,
		ServiceKey:        cfg.Feed.ServiceKey,
		Timeout:           cfg.Feed.Timeout,
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
		Burst:             cfg.Feed.Burst,
		MaxResponseBytes:  cfg.Feed.MaxResponseBytes,
	})
	if err != nil {
		log.Fatal("Failed to create feed client", zap.Error(err))
	}
	orchestrator, err := catalogsync.NewOrchestrator(feedClient, catalogsync.OrchestratorConfig{
		FastPages:       cfg.Sync.FastPages,
		FastPageSize:    cfg.Sync.FastPageSize,
		ProbePageSize:   cfg.Sync.ProbePageSize,
		PageSize:        cfg.Sync.PageSize,
		PoolCoreWorkers: cfg.Sync.PoolCoreWorkers,
		PoolMaxWorkers:  cfg.Sync.PoolMaxWorkers,
		PoolQueueLength: cfg.Sync.PoolQueueLength,
	}, metrics, log)
	if err != nil {
		log.Fatal("Failed to create sync orchestrator", zap.Error(err))
	}
	defer orchestrator.Close()

	syncService := catalogsync.NewService(orchestrator, reconciler,
		catalogsync.ServiceConfig{DeactivateOnPartial: cfg.Sync.DeactivateOnPartial},
		log,
		catalogsync.WithPublisher(publisher),
		catalogsync.WithMetrics(metrics),
	)
	syncScheduler, err := scheduler.NewCatalogSyncScheduler(scheduler.CatalogSyncSchedulerConfig{
		StartupEnabled:  cfg.Sync.StartupEnabled,
		ScheduleEnabled: cfg.Sync.ScheduleEnabled,
		InitialDelay:    cfg.Sync.InitialDelay,
		Interval:        cfg.Sync.Interval,
		HistorySize:     cfg.Sync.HistorySize,
	}, syncService, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}

	// Application services
	catalogService := catalogapp.NewCatalogService(itemRepo, board, log)
	bidService := biddingapp.NewBidService(ledger, bidderRepo, itemRepo, log,
		biddingapp.WithFloorBoard(board),
		biddingapp.WithPublisher(publisher),
		biddingapp.WithMetrics(metrics),
	)

	// HTTP
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.New(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        cfg.Telemetry.Enabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
		Identity: middleware.BidderIdentityConfig{
			JWTSecret:  cfg.Auth.JWTSecret,
			JWTIssuer:  cfg.Auth.JWTIssuer,
			HeaderName: cfg.Auth.BidderIDHeader,
			Logger:     log,
		},
		AdminToken:       cfg.Auth.AdminToken,
		BidRatePerSecond: cfg.HTTP.BidRatePerSecond,
		BidBurst:         cfg.HTTP.BidBurst,
	}, router.Handlers{
		Root:     []router.RouteRegistrar{handler.NewHealthHandler(db, syncScheduler, version)},
		Public:   []router.RouteRegistrar{handler.NewCatalogHandler(catalogService, bidService)},
		Bidder:   []router.RouteRegistrar{handler.NewBidHandler(bidService)},
		Operator: []router.RouteRegistrar{handler.NewBidderHandler(bidService), handler.NewSyncHandler(syncScheduler)},
	}, log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// The startup fast sync blocks; the listener is already serving reads meanwhile
	if err := syncScheduler.Start(rootCtx); err != nil {
		log.Error("Failed to start sync scheduler", zap.Error(err))
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := syncScheduler.Stop(ctx); err != nil {
		log.Warn("Sync scheduler did not stop in time", zap.Error(err))
	}
	closePublisher(ctx)
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newEventPublisher returns the JetStream publisher behind an async queue, or a
// logging publisher when NATS is disabled or unreachable.
func newEventPublisher(ctx context.Context, cfg config.NATSConfig, log *zap.Logger) (shared.EventPublisher, func(context.Context)) {
	if !cfg.Enabled {
		log.Info("NATS disabled, domain events are only logged")
		return event.NewLoggingPublisher(log), func(context.Context) {}
	}

	jsCfg := event.DefaultJetStreamConfig()
	jsCfg.URL = cfg.URL
	jsCfg.Stream = cfg.Stream
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	js, err := event.NewJetStreamPublisher(connectCtx, jsCfg, log)
	if err != nil {
		log.Warn("NATS unavailable, domain events are only logged", zap.Error(err))
		return event.NewLoggingPublisher(log), func(context.Context) {}
	}

	async := event.NewAsyncPublisher(js, event.DefaultAsyncPublisherConfig(), log)
	return async, func(ctx context.Context) {
		if err := async.Close(ctx); err != nil {
			log.Warn("Event queue did not drain", zap.Error(err))
		}
		if err := js.Close(); err != nil {
			log.Warn("Error closing NATS connection", zap.Error(err))
		}
	}
}
