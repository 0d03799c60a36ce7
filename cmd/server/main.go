package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cartline/internal/config"
	"cartline/internal/domain"
	"cartline/internal/infrastructure/kafka"
	"cartline/internal/infrastructure/logger"
	"cartline/internal/infrastructure/mysql"
	"cartline/internal/infrastructure/redis"
	"cartline/internal/infrastructure/tracing"
	"cartline/internal/order"
	"cartline/internal/product"
	"cartline/internal/server"
	"cartline/internal/session"
	"cartline/internal/user"
)

type eventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, event domain.OrderSubmittedEvent) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		zapLogger.Fatal("initializing tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			zapLogger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = mysql.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		zapLogger.Fatal("applying schema", zap.Error(err))
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()
	zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))

	var publisher eventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = kafka.NewProducer(cfg.Kafka, zapLogger)
		zapLogger.Info("order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		zapLogger.Info("no kafka brokers configured, order events disabled")
	}
	defer publisher.Close()

	sessions := session.NewRedisDirectory(rdb, cfg.Session.TTL)

	router := server.NewRouter(server.Controllers{
		Users:    user.NewModule(db, sessions, cfg, zapLogger),
		Products: product.NewModule(db, cfg, zapLogger),
		Cart:     order.NewModule(db, cfg, publisher, zapLogger),
	}, sessions, cfg.Session.CookieName, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("server error", zap.Error(err))
		return
	}

	zapLogger.Info("server stopped gracefully")
}
