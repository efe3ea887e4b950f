package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shortloop-dev/shortloop/internal/config"
	"github.com/shortloop-dev/shortloop/internal/events"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/db"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/logger"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/telemetry"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
	mongoStorage "github.com/shortloop-dev/shortloop/internal/storage/mongo"
	postgresStorage "github.com/shortloop-dev/shortloop/internal/storage/postgres"
	redisStorage "github.com/shortloop-dev/shortloop/internal/storage/redis"
	httpTransport "github.com/shortloop-dev/shortloop/internal/transport/http"
	"github.com/shortloop-dev/shortloop/internal/transport/http/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		var err error
		shutdownTracer, err = telemetry.InitTracer(cfg.OTel.Endpoint, cfg.App.Name, cfg.App.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	linkStore, statsStore, closeStores := connectStores(cfg)
	defer closeStores()

	linkSvc := shortlink.NewService(
		linkStore,
		statsStore,
		shortlink.NewCryptoCodeGenerator(),
		shortlink.NewSHA256Hasher(),
		cfg.Shortener.CodeLength,
	).WithDefaultTTL(cfg.Shortener.DefaultTTL)

	opts := httpTransport.DefaultRouterOptions()

	if cfg.Redis.Enabled {
		redisClient, err := redisStorage.New(redisStorage.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		limiterStore := redisStorage.NewFixedWindowLimiter(redisClient, "rl:create", time.Minute)
		opts.RateLimiter = middleware.NewCreateRateLimiter(limiterStore, cfg.Security.CreatePerMinuteLimit)
	}

	if cfg.Kafka.Enabled {
		publisher := events.NewKafkaClickPublisher(cfg.Kafka.Brokers, cfg.Kafka.ClickTopic)
		defer func() { _ = publisher.Close() }()
		opts.Publisher = publisher
		logger.Info("Kafka click publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.ClickTopic),
		)
	}

	router := httpTransport.NewRouterWithOptions(cfg, linkSvc, opts)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// connectStores builds the configured LinkStore backend. Daily click stats
// always live in Mongo; with the postgres backend and no Mongo configured the
// stats endpoint reports empty ranges.
func connectStores(cfg *config.Config) (shortlink.LinkStore, shortlink.ClickStatsStore, func()) {
	switch cfg.Store.Backend {
	case "postgres":
		pgConn, err := db.ConnectPostgres(context.Background(), cfg.Store.PostgresDSN)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		linkStore, err := postgresStorage.NewLinksRepository(context.Background(), pgConn)
		if err != nil {
			logger.Fatal("Failed to initialize links repository", zap.Error(err))
		}
		return linkStore, noopStats{}, pgConn.Close

	default:
		mongoConn, err := db.ConnectMongo(cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		linkStore, err := mongoStorage.NewLinksRepository(mongoConn)
		if err != nil {
			logger.Fatal("Failed to initialize links repository", zap.Error(err))
		}
		statsStore, err := mongoStorage.NewClickStatsRepository(mongoConn)
		if err != nil {
			logger.Fatal("Failed to initialize click stats repository", zap.Error(err))
		}
		return linkStore, statsStore, func() { _ = mongoConn.Disconnect() }
	}
}

// noopStats backs the stats endpoint when no stats store is configured.
type noopStats struct{}

func (noopStats) IncDaily(context.Context, string, time.Time) error { return nil }
func (noopStats) GetDaily(context.Context, string, time.Time, time.Time) ([]shortlink.DailyCount, error) {
	return nil, nil
}
