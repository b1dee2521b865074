/*
main.go - Application entry point

PURPOSE:
  Starts the register review HTTP server. Handles configuration, dependency
  injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env, then the config file and environment
  2. Build the zap logger
  3. Open the run store (memory, sqlite or postgres)
  4. Connect the Kafka notifier when brokers are configured
  5. Configure the HTTP router and serve

COMMAND-LINE FLAGS:
  -config  YAML config file (default: $REVIEW_CONFIG, none when unset)
  -env     .env file to load (default: .env, ignored when missing)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for in-flight reviews (shutdown_timeout)
  3. Close the notifier and the store
  4. Exit

EXAMPLES:
  # SQLite file store
  STORE_DSN=./data/review.db ./server

  # In-memory store on another port
  STORE_DRIVER=memory SERVER_PORT=3000 ./server

  # PostgreSQL with run events
  STORE_DRIVER=postgres DATABASE_URL=postgres://... KAFKA_BROKERS=k1:9092 ./server

SEE ALSO:
  - config/config.go: every setting and its env variable
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/register-review/api"
	"github.com/warp/register-review/config"
	"github.com/warp/register-review/logging"
	"github.com/warp/register-review/notify"
	"github.com/warp/register-review/review"
	memstore "github.com/warp/register-review/review/store"
	"github.com/warp/register-review/store/postgres"
	"github.com/warp/register-review/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("REVIEW_CONFIG"), "YAML config file")
	envFile := flag.String("env", ".env", ".env file to load")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.Stringer("config", cfg))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(rootCtx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}
	defer closeStore()

	var notifier review.Notifier = review.NopNotifier{}
	if cfg.Notify.Enabled() {
		ncfg := notify.Config{
			Brokers:  cfg.Notify.Brokers,
			Topic:    cfg.Notify.Topic,
			ClientID: cfg.Notify.ClientID,
			Source:   cfg.Notify.ClientID,
		}
		sp, err := notify.NewSyncProducer(ncfg)
		if err != nil {
			return fmt.Errorf("kafka producer init failed: %w", err)
		}
		kn := notify.NewKafkaNotifier(sp, ncfg, logger)
		defer func() { _ = kn.Close() }()
		notifier = kn
	}

	limiter := api.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	handler := api.NewHandler(store, api.HandlerConfig{
		Notifier:      notifier,
		Defaults:      cfg.Review.Document(),
		Limiter:       limiter,
		MaxUploadSize: cfg.Upload.MaxFileSize,
		ListLimit:     cfg.Review.ListLimit,
		StoreName:     cfg.Store.Driver,
	})
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	group, gctx := errgroup.WithContext(rootCtx)
	group.Go(func() error {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if err := limiter.WaitForDrain(ctx); err != nil {
			logger.Warn("reviews still running at shutdown", zap.Error(err))
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openStore builds the configured run store and its closer.
func openStore(ctx context.Context, cfg config.StoreConfig) (review.RunStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memstore.NewMemory(), func() {}, nil

	case "sqlite":
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		s, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		s, pool, err := postgres.Open(ctx, cfg.DSN, postgres.PoolConfig{
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
