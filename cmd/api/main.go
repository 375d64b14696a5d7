package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vaxtrack/account-service/internal/accounts"
	httptransport "github.com/vaxtrack/account-service/internal/api/http"
	"github.com/vaxtrack/account-service/internal/api/http/handlers"
	"github.com/vaxtrack/account-service/internal/auth"
	"github.com/vaxtrack/account-service/internal/config"
	"github.com/vaxtrack/account-service/internal/docstore"
	"github.com/vaxtrack/account-service/internal/events"
	"github.com/vaxtrack/account-service/internal/identity"
	"github.com/vaxtrack/account-service/internal/notify"
	"github.com/vaxtrack/account-service/internal/observability"
	"github.com/vaxtrack/account-service/internal/passcode"
	"github.com/vaxtrack/account-service/internal/persistence"
	"github.com/vaxtrack/account-service/internal/tokens"
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

	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	store := docstore.NewPostgresStore(pool)
	tokenMgr := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	provider := identity.NewLocalProvider(pool, tokenMgr, cfg.Auth.BcryptCost)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := notify.NewRelayMailer(cfg.Notify.RelayURL)
	notifications := notify.NewNotificationService(dispatcher, mailer, logger, cfg.Notify)
	notifications.RegisterHandlers()

	passcodeStore := passcode.NewRedisStore(redis.Client)
	passcodes := passcode.NewService(passcodeStore, provider, dispatcher, logger, cfg.Passcode.TTL())

	reconciler := accounts.NewReconciler(provider, store, logger)
	coordinator := accounts.NewCoordinator(reconciler, provider, store, dispatcher, logger)

	emailCodec := tokens.NewCodec(cfg.EmailChange.TokenSecret, cfg.EmailChange.TokenTTL())
	emailChange := accounts.NewEmailChanger(emailCodec, provider, store, mailer, dispatcher, logger,
		cfg.Notify.EmailFrom, cfg.EmailChange.ConfirmBaseURL)

	authMiddleware := auth.NewAuthMiddleware(provider, store)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(passcodes, provider),
		Account:        handlers.NewAccountHandler(emailChange),
		Admin:          handlers.NewAdminHandler(coordinator),
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
