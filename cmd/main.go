package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/scout/internal/adapters/http/api"
	"github.com/okian/scout/internal/adapters/http/swagger"
	app "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/seed"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service and HTTP server and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := metrics.Default().StartSystemCollector(ctx); err != nil && !errors.Is(err, metrics.ErrCollectorRunning) {
		return err
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		svc.Stop(stopCtx)
	}()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService translates configuration into service options.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithStoreBackend(cfg.Store, cfg.SQLitePath),
		app.WithDataFile(cfg.DataFile, cfg.WatchDataFile),
		app.WithSeed(seed.Options{
			Seed:         cfg.Seed,
			Contributors: cfg.SeedContributors,
			Projects:     cfg.SeedProjects,
			PendingRatio: cfg.SeedPendingRatio,
		}),
		app.WithLimits(cfg.Limits()),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.VoteQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithScoreWeights(cfg.ScoreWeights),
	)
}

// newHandler registers the docs and business routes on a fresh mux.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithLimits(cfg.Limits()),
		api.WithAdminToken(cfg.AdminToken),
	).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes the queue and catalogue gauges until
// ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats, err := svc.GetStats(ctx)
	if err != nil {
		return
	}
	metrics.UpdateQueueSize(stats.QueueDepth)
	metrics.UpdateCatalogue(stats.Contributors, stats.Projects, stats.PendingProjects)
}
