package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medstock/internal/adapter/events"
	"medstock/internal/adapter/handler"
	"medstock/internal/adapter/storage"
	"medstock/internal/config"
	"medstock/internal/core/service"
	"medstock/internal/port"
	"medstock/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping mysql", zap.Error(err))
	}
	log.Info("connected to mysql")

	store := storage.NewMySQLAdapter(db)
	if err := store.InitSchema(ctx); err != nil {
		log.Fatal("failed to initialize schema", zap.Error(err))
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	log.Info("connected to redis")
	cache := storage.NewRedisAdapter(rdb)

	// Kafka, with an in-process fallback when no broker is reachable.
	var publisher port.EventPublisher
	kafkaPublisher, err := events.NewKafkaPublisher(cfg, log)
	if err != nil {
		log.Warn("kafka unavailable, using in-memory event publisher", zap.Error(err))
		publisher = events.NewMemoryPublisher()
	} else {
		publisher = kafkaPublisher
		log.Info("connected to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	// Core services
	ledger := service.NewLedger(
		service.NewAtomicApplier(store),
		service.NewReadModifyWriteApplier(store),
		cache,
		log,
	)
	alerts := service.NewAlertManager(store, publisher, log)
	processor := service.NewProcessor(ledger, store, store, alerts, publisher, log)
	sweeper := service.NewSweeper(store, store, alerts, cfg.SweepInterval, log)

	go sweeper.Run(ctx)
	log.Info("sweeper started", zap.Duration("interval", cfg.SweepInterval))

	// HTTP
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))
	handler.New(processor, alerts, store, store, store, cache, log).Register(router)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	cancel()

	if err := publisher.Close(); err != nil {
		log.Warn("failed to close event publisher", zap.Error(err))
	}
	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
