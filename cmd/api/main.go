package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hotel-requests/internal/api/http"
	"github.com/spec-kit/hotel-requests/internal/api/http/handlers"
	"github.com/spec-kit/hotel-requests/internal/auth"
	"github.com/spec-kit/hotel-requests/internal/config"
	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/observability"
	"github.com/spec-kit/hotel-requests/internal/persistence"
	"github.com/spec-kit/hotel-requests/internal/repository"
	"github.com/spec-kit/hotel-requests/internal/service"
	"github.com/spec-kit/hotel-requests/internal/worker"
)

type stores struct {
	requests repository.RequestStore
	staff    repository.StaffRepository
	guests   repository.GuestRepository
	history  repository.RequestHistoryRepository
}

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

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := openStores(pg)

	location, err := cfg.Metrics.Location()
	if err != nil {
		logger.Fatal("invalid metrics timezone", zap.Error(err))
	}

	registry := service.NewRegistryService(service.RegistryDependencies{
		StaffRepo: repos.staff,
		GuestRepo: repos.guests,
		Logger:    logger,
	})
	seed, err := config.LoadRegistrySeed(cfg.Registry.SeedFile)
	if err != nil {
		logger.Fatal("failed to load registry seed", zap.Error(err))
	}
	if err := registry.ApplySeed(ctx, seed); err != nil {
		logger.Fatal("failed to apply registry seed", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	visibility := service.NewVisibilityService(repos.requests)
	audit := service.NewAuditService(repos.history, visibility)

	var forwarder *events.StreamForwarder
	if redis.Enabled() && cfg.Events.StreamEnabled {
		forwarder = events.NewStreamForwarder(redis.Client, cfg.Events.StreamKey, cfg.Events.StreamMaxLen, logger)
	}
	worker.StartEventSubscribers(dispatcher, worker.Subscribers{
		Audit:     audit,
		Forwarder: forwarder,
		Logger:    logger,
	})

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		RequestStore: repos.requests,
		StaffRepo:    repos.staff,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
	})
	metricsService := service.NewMetricsService(service.MetricsDependencies{
		RequestStore: repos.requests,
		StaffRepo:    repos.staff,
		Location:     location,
	})

	tokens := auth.NewTokenManager(cfg.Identity.JWTSecret, cfg.Identity.Issuer, cfg.Identity.TokenTTLMinutes)
	resolver := auth.NewResolver(tokens, repos.staff, repos.guests, logger)
	authMiddleware := auth.NewAuthMiddleware(resolver)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewRequestsHandler(lifecycle, visibility, audit),
		Admin:          handlers.NewAdminHandler(metricsService, registry),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// openStores picks the Postgres repositories when a pool is open and the
// in-memory ones otherwise.
func openStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		return stores{
			requests: repository.NewMemoryRequestStore(),
			staff:    repository.NewMemoryStaffRepository(),
			guests:   repository.NewMemoryGuestRepository(),
			history:  repository.NewMemoryRequestHistoryRepository(),
		}
	}
	pool := pg.PoolHandle()
	return stores{
		requests: repository.NewRequestRepository(pool),
		staff:    repository.NewStaffRepository(pool),
		guests:   repository.NewGuestRepository(pool),
		history:  repository.NewRequestHistoryRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
