// Package server wires configuration, storage, sessions and the HTTP and
// gRPC endpoints together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/invkeeper/internal/logging"
	"github.com/dmitrijs2005/invkeeper/internal/server/config"
	"github.com/dmitrijs2005/invkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/invkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/invkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/invkeeper/internal/server/services"
	"github.com/dmitrijs2005/invkeeper/internal/server/sessions"

	gs "github.com/dmitrijs2005/invkeeper/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

var (
	openDB               = repomanager.OpenDB
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry sessions.Registry
	sweeper  *sessions.Sweeper
	handler  http.Handler
	closers  []func() error
}

// NewApp connects to the database, applies migrations and builds every
// component described by c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, newRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	registry, err := app.newRegistry(ctx)
	if err != nil {
		return nil, err
	}
	app.registry = registry

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)
	m.TrackDB(db)
	if counter, ok := registry.(sessions.Counter); ok {
		m.TrackSessions(counter)
	}

	if sweepable, ok := registry.(sessions.Sweepable); ok && c.SessionSweepSchedule != "" {
		sweeper, err := sessions.NewSweeper(c.SessionSweepSchedule, sweepable, logger)
		if err != nil {
			app.release()
			return nil, err
		}
		app.sweeper = sweeper
	}

	imageStore, uploadDir, err := app.newImageStore(ctx)
	if err != nil {
		app.release()
		return nil, err
	}

	hasher := credentials.NewStore(c.PasswordPepper)
	throttle := services.NewLoginThrottle(c.LoginMaxAttempts, c.LoginLockoutDuration)

	app.handler = httpapi.NewRouter(httpapi.Deps{
		Auth:     services.NewAuthService(db, rm, hasher, registry, throttle),
		Users:    services.NewUserService(db, rm, hasher),
		Products: services.NewProductService(db, rm),
		Images:   services.NewImageService(imageStore),
		Metrics:  m,
		Logger:   logger,
	}, httpOptions(c, uploadDir))

	return app, nil
}

func httpOptions(c *config.Config, uploadDir string) httpapi.Options {
	return httpapi.Options{
		UploadDir:      uploadDir,
		StaticDir:      c.StaticDir,
		SecureCookies:  c.SecureCookies,
		MaxUploadBytes: httpapi.DefaultMaxUploadBytes,
	}
}

func (app *App) newRegistry(ctx context.Context) (sessions.Registry, error) {
	switch app.config.SessionBackend {
	case config.SessionBackendRedis:
		r, err := sessions.NewRedisRegistry(ctx, app.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis session backend: %w", err)
		}
		app.closers = append(app.closers, r.Close)
		return r, nil
	case config.SessionBackendMemory, "":
		return sessions.NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", app.config.SessionBackend)
	}
}

// newImageStore picks S3 when a bucket is configured and the local upload
// directory otherwise. The returned directory is non-empty only for the
// local store.
func (app *App) newImageStore(ctx context.Context) (services.ImageStore, string, error) {
	if app.config.S3Bucket != "" {
		s, err := services.NewS3ImageStore(ctx, app.config)
		if err != nil {
			return nil, "", fmt.Errorf("s3 image store: %w", err)
		}
		return s, "", nil
	}
	s, err := services.NewLocalImageStore(app.config.UploadDir, "/uploads")
	if err != nil {
		return nil, "", fmt.Errorf("local image store: %w", err)
	}
	return s, s.Dir(), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, map[string]gs.Check{
		"database": app.db.PingContext,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or a server
// fails, then releases every resource.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "session_backend", app.config.SessionBackend)

	app.initSignalHandler(cancelFunc)

	if app.sweeper != nil {
		app.sweeper.Start()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

// release stops the sweeper and closes the session backend. The database
// handle is left to the caller.
func (app *App) release() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.sweeper != nil {
		app.sweeper.Stop(ctx)
	}
	for _, c := range app.closers {
		if err := c(); err != nil {
			app.logger.Warn(ctx, "close error", "error", err)
		}
	}
}

func (app *App) close() {
	app.release()
	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close error", "error", err)
	}
}
