// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/config"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/services"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/validation"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   repomanager.RepositoryManager
	limiter ratelimit.Limiter
	server  *httpapi.HTTPServer
}

// NewApp opens storage, applies migrations and builds the HTTP server.
// Resources acquired before a failure are released.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (app *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "Sessions are signed with the built-in development secret; set JWT_SECRET")
	}

	store, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()

	if err := store.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return nil, err
	}
	issuer := auth.NewIssuer([]byte(c.SecretKey), c.SessionTTL)
	v := validation.New()

	limiter, err := newLimiter(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("rate limiter init error: %w", err)
	}

	us := services.NewUserService(store, auth.NewHashPool(hasher, 0), issuer, v)
	ds := services.NewDecisionService(store, v)

	gin.SetMode(gin.ReleaseMode)
	srv := httpapi.NewHTTPServer(c, logger, us, ds, issuer, limiter)

	logger.Info(ctx, "App initialized", "storage", c.StorageDriver, "hasher", c.PasswordHasher, "redis", c.RedisAddr != "")

	return &App{config: c, logger: logger, store: store, limiter: limiter, server: srv}, nil
}

// newLimiter returns ratelimit.Unlimited when RateLimit is 0.
func newLimiter(ctx context.Context, c *config.Config) (ratelimit.Limiter, error) {
	if c.RateLimit == 0 {
		return ratelimit.Unlimited{}, nil
	}
	if c.RedisAddr != "" {
		return ratelimit.DialRedis(ctx, c.RedisAddr, c.RateLimit, c.RateWindow)
	}
	return ratelimit.NewMemoryLimiter(c.RateLimit, c.RateWindow), nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts the
// HTTP server down gracefully and releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
	}

	return errors.Join(err, app.Close())
}

// Close releases the rate limiter and the store.
func (app *App) Close() error {
	var errs []error
	if err := app.limiter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close rate limiter: %w", err))
	}
	if err := app.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}
