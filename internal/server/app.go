// Package server wires the videotube auth backend together: storage,
// services, throttling, metrics and the HTTP and gRPC endpoints. It also
// owns startup and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/videotube/internal/cryptox"
	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/dmitrijs2005/videotube/internal/server/config"
	"github.com/dmitrijs2005/videotube/internal/server/httpapi"
	"github.com/dmitrijs2005/videotube/internal/server/metrics"
	"github.com/dmitrijs2005/videotube/internal/server/ratelimit"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/videotube/internal/server/repositories/users"
	"github.com/dmitrijs2005/videotube/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/videotube/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       repomanager.RepositoryManager
	redis       *redis.Client
	userService *services.UserService
	httpServer  *httpapi.Server
	grpcServer  *gs.GRPCServer
}

// NewApp validates c, opens and initialises the store and builds both
// servers. Nothing is listening until Run is called.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	hasher, err := cryptox.NewHasher(c.PasswordHashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	store, err := repomanager.Open(ctx, c.DatabaseDSN, c.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repo := users.NewBreakerRepository(store.Users(), users.BreakerSettings{
		MaxFailures: c.BreakerMaxFailures,
		OpenTimeout: c.BreakerOpenTimeout,
	}, logger)

	app := &App{config: c, logger: logger, store: store}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis is not reachable, login throttling fails open until it is", "addr", c.RedisAddr, "error", err)
		}
	}
	limiter := ratelimit.New(c.LoginRateLimit, c.LoginRateWindow, app.redis, logger)

	app.userService = services.NewUserService(repo, hasher, c, recorder, logger)
	app.httpServer = httpapi.NewServer(c, app.userService, limiter, metrics.Handler(registry), logger)
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, app.userService, limiter)

	return app, nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a shutdown signal
// arrives or one of the servers fails. The store is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server failed", "error", err)
	}

	return errors.Join(err, app.close())
}

func (app *App) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	app.logger.Info(ctx, "App stopped")
	// Sync on a terminal stdout returns EINVAL; ignored.
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return errors.Join(errs...)
}
