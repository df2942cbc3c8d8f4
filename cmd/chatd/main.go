// Command chatd runs the BamboChat realtime messaging server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TrNhDuong/BamboChat/auth"
	"github.com/TrNhDuong/BamboChat/chat"
	"github.com/TrNhDuong/BamboChat/chat/validator"
	"github.com/TrNhDuong/BamboChat/postgres"
	"github.com/TrNhDuong/BamboChat/redis"
)

// Config holds the environment configuration, prefixed BAMBOCHAT_.
type Config struct {
	Addr            string        `envconfig:"addr" default:":8080"`
	PostgresDSN     string        `envconfig:"postgres_dsn" required:"true"`
	RedisAddr       string        `envconfig:"redis_addr" default:"localhost:6379"`
	JWTSecret       string        `envconfig:"jwt_secret" required:"true"`
	MaxContentBytes int           `envconfig:"max_content_bytes" default:"4096"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"30s"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("Server failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg Config
	if err := envconfig.Process("bambochat", &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	cache, err := redis.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("Connected to Redis")

	srv := &chat.Server{
		Logger:          logger,
		DB:              pg,
		Cache:           cache,
		Broker:          chat.NewHub(),
		Auth:            auth.NewVerifier([]byte(cfg.JWTSecret)),
		Val:             validator.New(),
		MaxContentBytes: cfg.MaxContentBytes,
	}

	mux := http.NewServeMux()
	mux.Handle("/", srv)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// No WriteTimeout: it would cut long-lived websocket connections.
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
