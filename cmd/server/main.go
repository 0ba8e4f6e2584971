package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	importapp "github.com/frontdesk/backend/internal/application/importer"
	"github.com/frontdesk/backend/internal/infrastructure/config"
	"github.com/frontdesk/backend/internal/infrastructure/event"
	"github.com/frontdesk/backend/internal/infrastructure/logger"
	"github.com/frontdesk/backend/internal/infrastructure/notify"
	"github.com/frontdesk/backend/internal/infrastructure/persistence"
	"github.com/frontdesk/backend/internal/infrastructure/scheduler"
	"github.com/frontdesk/backend/internal/infrastructure/square"
	"github.com/frontdesk/backend/internal/interfaces/http/handler"
	"github.com/frontdesk/backend/internal/interfaces/http/middleware"
	"github.com/frontdesk/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Frontdesk Import Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	taskRepo := persistence.NewGormImportTaskRepository(db.DB)
	recordRepo := persistence.NewGormBusinessRecordRepository(db.DB)

	// Event bus and the realtime feed
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	notifier, err := notify.NewRedisNotifier(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		_ = notifier.Close()
	}()
	eventBus.Subscribe(notifier, notifier.EventTypes()...)

	// Square provider
	squareAdapter, err := square.NewAdapter(
		square.Config{
			BaseURL: cfg.Square.BaseURL,
			Timeout: cfg.Square.Timeout,
		},
		square.NewStaticCredentialStore(cfg.Square.AccessToken),
		log,
	)
	if err != nil {
		log.Fatal("Failed to configure Square adapter", zap.Error(err))
	}

	// Application services
	sink := importapp.NewBusinessRecordSink(recordRepo, log)
	orchestrator := importapp.NewOrchestrator(
		taskRepo,
		squareAdapter,
		sink,
		eventBus,
		importapp.OrchestratorConfig{RetryDelay: cfg.Importer.RetryDelay},
		log,
	)
	reimports := importapp.NewReimportService(taskRepo, cfg.Importer.MaxRetries, log)

	// Background workers
	poller := scheduler.NewRetryPoller(orchestrator, log, scheduler.RetryPollerConfig{
		Enabled:  cfg.Importer.PollEnabled,
		Interval: cfg.Importer.PollInterval,
	})
	if err := poller.Start(context.Background()); err != nil {
		log.Fatal("Failed to start retry poller", zap.Error(err))
	}

	sweeper := scheduler.NewStaleSweeper(taskRepo, eventBus, log, scheduler.StaleSweeperConfig{
		Interval:     cfg.Importer.SweepInterval,
		StaleTimeout: cfg.Importer.StaleTimeout,
	})
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start stale sweeper", zap.Error(err))
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	systemHandler := handler.NewSystemHandler(map[string]handler.HealthChecker{
		"database": func(context.Context) error { return db.Ping() },
		"redis":    notifier.Ping,
	})

	router.NewRouter(engine).
		Register(handler.NewImportHandler(orchestrator, reimports)).
		Register(systemHandler).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := poller.Stop(ctx); err != nil {
		log.Error("Retry poller did not stop cleanly", zap.Error(err))
	}
	if err := sweeper.Stop(ctx); err != nil {
		log.Error("Stale sweeper did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
