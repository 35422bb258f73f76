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

	httptransport "github.com/semprecheio/auth-api/internal/api/http"
	"github.com/semprecheio/auth-api/internal/api/http/handlers"
	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/config"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/events"
	"github.com/semprecheio/auth-api/internal/observability"
	"github.com/semprecheio/auth-api/internal/persistence"
	"github.com/semprecheio/auth-api/internal/repository"
	"github.com/semprecheio/auth-api/internal/service"
	"github.com/semprecheio/auth-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var accountRepo repository.AccountRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accountRepo = repository.NewAccountRepository(pg.PoolHandle())
	} else {
		if cfg.App.Env.IsProduction() {
			logger.Fatal("POSTGRES_DSN is required in production")
		}
		accountRepo = repository.NewMemoryAccountRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	revocationStore := repository.NewNoopRevocationStore()
	if redis.Enabled() {
		revocationStore = repository.NewRedisRevocationStore(redis.Client)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	workerDone := worker.StartNotificationWorker(ctx, notificationService, logger)

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:     accountRepo,
		RevocationStore: revocationStore,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	accountService := service.NewAccountService(accountRepo, authService.Hasher(), dispatcher, logger)

	if !pg.Enabled() {
		seedDevAccounts(ctx, accountService, logger)
	}

	cookies := auth.NewCookieManager(cfg.Cookie, cfg.Auth.SessionMaxAge, cfg.Auth.RememberMeMaxAge)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), cookies, revocationStore, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env.IsProduction(),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cookies),
		Accounts:       handlers.NewAccountsHandler(accountService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-workerDone
}

// seedDevAccounts loads the demo accounts used by local frontends into the in-memory store.
func seedDevAccounts(ctx context.Context, accounts *service.AccountService, logger *zap.Logger) {
	system := domain.Principal{ID: "system", Role: domain.RoleSuperAdmin}
	seeds := []service.CreateAccountInput{
		{Name: "Salão Demo", Email: "admin@salon.com", Password: "123456", Role: string(domain.RoleAdmin), ServiceType: "salon"},
		{Name: "Barbearia Demo", Email: "cliente@barbearia.com", Password: "123456", ServiceType: "barbershop"},
	}
	for _, seed := range seeds {
		if _, err := accounts.Create(ctx, system, seed); err != nil {
			logger.Warn("seed account failed", zap.String("email", seed.Email), zap.Error(err))
		}
	}
	logger.Info("in-memory account store seeded", zap.Int("accounts", len(seeds)))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
