package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/boon-market/support-router/internal/api/http"
	"github.com/boon-market/support-router/internal/api/http/handlers"
	"github.com/boon-market/support-router/internal/auth"
	"github.com/boon-market/support-router/internal/config"
	"github.com/boon-market/support-router/internal/conversation"
	"github.com/boon-market/support-router/internal/dispatch"
	"github.com/boon-market/support-router/internal/events"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/menu"
	"github.com/boon-market/support-router/internal/observability"
	"github.com/boon-market/support-router/internal/persistence"
	"github.com/boon-market/support-router/internal/repository"
	"github.com/boon-market/support-router/internal/service"
	"github.com/boon-market/support-router/internal/worker"
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

	var redis *persistence.Redis
	var stateStore conversation.Store
	if cfg.Support.UseRedisState {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		stateStore = conversation.NewRedisStore(redis.Client, cfg.Support.StateTTL())
	} else {
		stateStore = conversation.NewMemoryStore(cfg.Support.StateTTL())
	}

	menuTree, err := menu.Load(cfg.Support.MenuPath)
	if err != nil {
		logger.Fatal("failed to load menu", zap.Error(err))
	}

	pool := pg.PoolHandle()
	retryPolicy := repository.RetryPolicy{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.Retry.BaseDelay(),
	}
	accountRepo := repository.NewRetryingAccountRepository(repository.NewAccountRepository(pool), retryPolicy)
	ticketRepo := repository.NewRetryingTicketRepository(repository.NewTicketRepository(pool), retryPolicy)
	orderRepo := repository.NewRetryingOrderRepository(repository.NewOrderRepository(pool), retryPolicy)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	messenger := gateway.NewClient(cfg.Gateway.APIBaseURL, cfg.Gateway.APIToken, logger)
	schedule := service.NewSchedule(cfg.Support)

	directory := service.NewDirectoryService(accountRepo)
	router := service.NewRouterService(service.RouterDependencies{
		TicketRepo: ticketRepo,
		OrderRepo:  orderRepo,
		Directory:  directory,
		Messenger:  messenger,
		Dispatcher: dispatcher,
		GatewayCfg: cfg.Gateway,
		Schedule:   schedule,
		Logger:     logger,
	})
	intake := service.NewIntakeService(service.IntakeDependencies{
		States:    stateStore,
		Directory: directory,
		OrderRepo: orderRepo,
		Router:    router,
		Menu:      menuTree,
		Messenger: messenger,
		Cfg:       cfg.Support,
		Logger:    logger,
	})
	survey := service.NewSurveyService(service.SurveyDependencies{
		TicketRepo: ticketRepo,
		Messenger:  messenger,
		Dispatcher: dispatcher,
		GatewayCfg: cfg.Gateway,
		Schedule:   schedule,
		Logger:     logger,
	})
	notifications := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notifications)

	updateDispatcher := dispatch.NewDispatcher(dispatch.Dependencies{
		Intake:       intake,
		Router:       router,
		Survey:       survey,
		StaffGroupID: cfg.Gateway.StaffGroupID,
		BotID:        cfg.Gateway.BotID,
		Logger:       logger,
		Metrics:      metrics,
		Messenger:    messenger,
	})

	tokens := auth.NewTokenManager(cfg.Gateway.WebhookSecret, 0)
	webhookAuth := auth.NewWebhookMiddleware(tokens)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	webhookHandler := handlers.NewWebhookHandler(updateDispatcher, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            healthHandler,
		Webhook:           webhookHandler,
		WebhookMiddleware: webhookAuth,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
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
