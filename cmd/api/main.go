package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/coffeeshop-service/internal/api/http"
	"github.com/spec-kit/coffeeshop-service/internal/api/http/handlers"
	"github.com/spec-kit/coffeeshop-service/internal/auth"
	"github.com/spec-kit/coffeeshop-service/internal/config"
	"github.com/spec-kit/coffeeshop-service/internal/events"
	"github.com/spec-kit/coffeeshop-service/internal/observability"
	"github.com/spec-kit/coffeeshop-service/internal/persistence"
	"github.com/spec-kit/coffeeshop-service/internal/repository"
	"github.com/spec-kit/coffeeshop-service/internal/service"
	"github.com/spec-kit/coffeeshop-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	drinkRepo := repository.NewDrinkRepository(pg.PoolHandle())
	menuCache := service.NewMenuCache(redis.Client, cfg.Cache.MenuTTL(), logger)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartMenuCacheWorker(dispatcher, menuCache, logger)

	drinkService := service.NewDrinkService(drinkRepo, menuCache, dispatcher)

	keySet := auth.NewKeySet(auth.KeySetConfig{
		URL:          cfg.Auth.JWKSURL,
		TTL:          cfg.Auth.KeySetTTL(),
		MaxStale:     cfg.Auth.KeySetMaxStale(),
		FetchTimeout: cfg.Auth.KeySetFetchTimeout(),
	}, nil)
	verifier := auth.NewVerifier(keySet, cfg.Auth.Issuer(), cfg.Auth.Audience)
	authMiddleware := auth.NewMiddleware(verifier)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"redis": redis,
	})
	drinksHandler := handlers.NewDrinksHandler(drinkService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Drinks:         drinksHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
