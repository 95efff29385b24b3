// Package bootstrap wires the process-level handles every service shares:
// logger, tracer, database pool, cache client and event publisher. It also
// runs the HTTP server until a shutdown signal arrives.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-backend/config"
	"shop-backend/internal/api"
	"shop-backend/internal/broker"
	"shop-backend/internal/redisclient"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
	"shop-backend/internal/util"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// App holds the handles created at process start. Close releases them in
// reverse order.
type App struct {
	Config *config.Config
	Store  *store.Store
	Redis  *redisclient.Client
	Events service.Publisher
	Logger *zap.Logger

	closers []func()
}

// New loads the configuration of the named service and opens its
// dependencies. The given tables are created when missing.
func New(name string, schemas ...store.Schema) (*App, error) {
	cfg := config.Load(name)

	if err := util.InitLogger(cfg.Server.Env, name, cfg.Server.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app := &App{Config: cfg, Logger: util.GetLogger()}
	app.onClose(util.SyncLogger)
	app.Logger.Info("Starting service")

	tp, err := util.InitTracer(name, cfg.Observ.JaegerEndpoint)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	app.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			app.Logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	})

	db, err := store.NewStore(cfg.Database.Driver, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = db
	app.onClose(func() { _ = db.Close() })
	app.Logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, schemas...); err != nil {
		app.Close()
		return nil, err
	}

	redisClient := connectCache(cfg.Redis, app.Logger)
	app.Redis = redisClient
	app.onClose(func() { _ = redisClient.Close() })

	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		app.Events = broker.NewEventPublisher(producer)
		app.onClose(func() { _ = producer.Close() })
		app.Logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		app.Events = broker.NoopPublisher{}
		app.Logger.Info("Kafka disabled, domain events are dropped")
	}

	return app, nil
}

// connectCache returns a Redis client even when the server is down at start
// up: the cache falls back to the database until Redis answers.
func connectCache(cfg config.RedisConfig, logger *zap.Logger) *redisclient.Client {
	client, err := redisclient.NewClient(cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn("Redis unreachable, serving from the database until it recovers",
			zap.String("addr", cfg.Addr),
			zap.Error(err))
		return redisclient.New(cfg.Addr, cfg.Password, cfg.DB)
	}
	logger.Info("Redis connected", zap.String("addr", cfg.Addr))
	return client
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases every handle opened by New.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Consumer returns a Kafka consumer of the events topic in this service's
// group, or nil when Kafka is disabled.
func (a *App) Consumer() *broker.Consumer {
	if !a.Config.Kafka.Enabled {
		return nil
	}
	return broker.NewConsumer(a.Config.Kafka.Brokers, a.Config.Kafka.TopicEvents, a.Config.Kafka.ConsumerGroup)
}

// Serve runs the HTTP server with the given resource routes until SIGINT
// or SIGTERM, then drains in-flight requests.
func (a *App) Serve(resources api.Registrar) error {
	router := api.NewRouter(a.Config.Server.Env, map[string]api.Pinger{
		"database": a.Store,
		"redis":    a.Redis,
	}, resources)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Server.Port),
		Handler:           otelhttp.NewHandler(router, a.Config.Server.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting HTTP server", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	a.Logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
