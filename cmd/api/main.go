package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/academic-erp/internal/api/http"
	"github.com/spec-kit/academic-erp/internal/api/http/handlers"
	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/config"
	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/observability"
	"github.com/spec-kit/academic-erp/internal/persistence"
	"github.com/spec-kit/academic-erp/internal/repository"
	"github.com/spec-kit/academic-erp/internal/service"
	"github.com/spec-kit/academic-erp/internal/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	auditQueueSize  = 1024
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	var (
		employees repository.EmployeeRepository
		orgs      repository.OrganisationRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				return err
			}
		}
		employees = repository.NewEmployeeRepository(pg.Pool)
		orgs = repository.NewOrganisationRepository(pg.Pool)
	} else {
		employees = repository.NewMemoryEmployeeRepository()
		orgs = repository.NewOrganisationRepository(nil)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var states auth.StateStore = repository.NewMemoryLoginStateRepository()
	if redis.Enabled() {
		states = repository.NewLoginStateRepository(redis.Client)
	}

	authLimiter, err := httptransport.NewRateLimiter(cfg.HTTP.AuthRateLimit, redis.Client)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	auditWorker := worker.NewAuditWorker(service.NewAuditService(logger, metrics).Handle, auditQueueSize, logger)
	auditWorker.Subscribe(dispatcher)

	directory := service.NewDirectoryService(employees)
	login := service.NewLoginService(cfg.OAuth, service.LoginDependencies{
		Directory:  directory,
		Tokens:     tokens,
		Provider:   auth.NewGoogleProvider(cfg.OAuth),
		States:     states,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	organisations := service.NewOrganisationService(orgs, dispatcher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.HTTP.CORSAllowedOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:          handlers.NewAuthHandler(login, cfg.OAuth.FrontendCallbackURL, logger),
		Employees:     handlers.NewEmployeesHandler(directory),
		Organisations: handlers.NewOrganisationsHandler(organisations),
		Gate:          auth.NewRequestGate(tokens, directory, metrics, logger),
		Metrics:       metrics,
		AuthLimiter:   authLimiter,
		Logger:        logger,
	})

	// The audit worker outlives the HTTP server so events published by
	// in-flight requests are still drained.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		return auditWorker.Run(auditCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		defer stopAudit()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
