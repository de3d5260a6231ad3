package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/asset-tracker/internal/api/http"
	"github.com/spec-kit/asset-tracker/internal/api/http/handlers"
	"github.com/spec-kit/asset-tracker/internal/auth"
	"github.com/spec-kit/asset-tracker/internal/cache"
	"github.com/spec-kit/asset-tracker/internal/config"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/observability"
	"github.com/spec-kit/asset-tracker/internal/persistence"
	"github.com/spec-kit/asset-tracker/internal/service"
	"github.com/spec-kit/asset-tracker/internal/storage"
	"github.com/spec-kit/asset-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := persistence.OpenBackend(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to open storage backend", zap.Error(err))
	}
	defer backend.Close()
	store, tx := backend.Store, backend.Tx

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	images, err := storage.NewLocalImageStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	stockDeps := service.StockDependencies{
		Assets:     store.Assets,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	}
	if redis.Enabled() {
		stockDeps.Cache = cache.NewSummaryCache(redis.Client, cfg.Cache.SummaryTTL())
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: store.Users, Logger: logger})
	assetService := service.NewAssetService(service.AssetDependencies{
		Store: store, Tx: tx, Images: images, Dispatcher: dispatcher, Logger: logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Store: store, Tx: tx, Dispatcher: dispatcher, Metrics: metrics, Logger: logger,
	})
	stockService := service.NewStockService(stockDeps)
	categoryService := service.NewCategoryService(service.CategoryDependencies{
		Store: store, Tx: tx, Dispatcher: dispatcher, Logger: logger,
	})
	employeeService := service.NewEmployeeService(store.Employees, logger)
	requestService := service.NewAssetRequestService(service.AssetRequestDependencies{
		Store: store, Dispatcher: dispatcher, Logger: logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.Start(notificationService, stockService)

	// Leave headroom above the image limit for the other form fields.
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Storage.MaxUploadBytes + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:            logger,
		Metrics:           metrics,
		Timeout:           cfg.App.RequestTimeout(),
		Development:       cfg.App.IsDevelopment(),
		CORSOrigins:       cfg.App.CORSOrigins,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend.Postgres, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Assets:         handlers.NewAssetsHandler(assetService, stockService, images),
		History:        handlers.NewAssetHistoryHandler(lifecycleService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		Requests:       handlers.NewAssetRequestsHandler(requestService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users),
		Metrics:        metrics,
		UploadDir:      cfg.Storage.UploadDir,
		UploadPrefix:   cfg.Storage.PublicPrefix,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
