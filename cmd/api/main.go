// Package main is the entry point for the Mapty API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/mapty/internal/config"
	"github.com/pkordes/mapty/internal/events"
	"github.com/pkordes/mapty/internal/handler"
	"github.com/pkordes/mapty/internal/middleware"
	"github.com/pkordes/mapty/internal/repo"
	"github.com/pkordes/mapty/internal/service"
	"github.com/pkordes/mapty/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// The default logger writes to stderr until ours is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Storage ----------------------------------------------------------
	kv, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("store ready", "backend", cfg.StoreBackend)

	// --- Events -----------------------------------------------------------
	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("publishing workout events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("closing publisher", "error", err)
		}
	}()

	// --- Services ---------------------------------------------------------
	sessions := service.NewSessionService(kv, service.SessionConfig{
		StorageKey: cfg.StorageKey,
		Validation: cfg.ValidationMode,
		Publisher:  publisher,
		IdleTTL:    cfg.SessionIdleTTL,
	}, logger)
	export := service.NewExportService(kv, cfg.StorageKey, cfg.ValidationMode, logger)
	srv := handler.NewServer(sessions, export)

	evictCtx, stopEviction := context.WithCancel(context.Background())
	defer stopEviction()
	go sessions.RunEviction(evictCtx, evictionInterval(cfg.SessionIdleTTL))

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger →
	// Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "validation", cfg.ValidationMode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// evictionInterval sweeps a few times per TTL, at most once a minute.
func evictionInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Minute)
}

// openStore connects the configured storage backend. For Postgres it also
// applies pending migrations before any traffic is accepted.
func openStore(ctx context.Context, cfg config.Config) (repo.KVStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		if err != nil {
			_ = db.Close()
			pool.Close()
			return nil, nil, err
		}
		slog.Info("migrations applied", "count", applied)
		return repo.NewPostgresKVStore(pool), func() {
			_ = db.Close()
			pool.Close()
		}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return repo.NewRedisKVStore(client), func() { _ = client.Close() }, nil

	default:
		slog.Warn("using in-memory store; workouts are lost on restart")
		return repo.NewMemoryKVStore(), func() {}, nil
	}
}
