package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/events-api/internal/api"
	"github.com/Togather-Foundation/events-api/internal/api/handlers"
	"github.com/Togather-Foundation/events-api/internal/config"
	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/Togather-Foundation/events-api/internal/metrics"
	"github.com/Togather-Foundation/events-api/internal/storage/postgres"
	"github.com/Togather-Foundation/events-api/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Apply pending migrations when AUTO_MIGRATE is set
- Serve the events API plus /health, /readyz, /metrics and /openapi.json
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			applyServeFlags(&cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	return cmd
}

func applyServeFlags(cfg *config.Config) {
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
}

// runServer blocks until ctx is cancelled or the listener fails, then drains
// in-flight requests.
func runServer(ctx context.Context, cfg config.Config) error {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting events API server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("auto migrate failed: %w", err)
		}
		logger.Info().Msg("database migrations applied")
	}

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(api.Deps{
			Config: cfg,
			Logger: logger,
			Events: events.NewService(postgres.NewEventRepository(pool)),
			Health: handlers.NewHealthChecker(pool, Version, GitCommit),
			Build:  buildInfo(),
		}),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	collector := metrics.NewDBCollector(pool)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		collector.Start(gctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, collector, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func gracefulShutdown(server *http.Server, collector *metrics.DBCollector, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")
	collector.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
