package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/adapter/events"
	"github.com/ldt1810/shop-backend/internal/adapter/handler"
	"github.com/ldt1810/shop-backend/internal/adapter/identity"
	"github.com/ldt1810/shop-backend/internal/adapter/storage"
	"github.com/ldt1810/shop-backend/internal/config"
	"github.com/ldt1810/shop-backend/internal/core/service"
	"github.com/ldt1810/shop-backend/internal/port"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Info("connected to mysql")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Info("connected to redis")

	store := storage.NewMySQLAdapter(db)
	tokens := storage.NewRedisAdapter(rdb)

	var publisher port.EventPublisher = events.NoopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, log)
		publisher = kafkaPublisher
		log.WithField("topic", cfg.KafkaTopic).Info("kafka publisher enabled")
	}

	provider := identity.NewLocalProvider(store, tokens, log)

	engine := service.NewReservationEngine(store, log)
	ledger := service.NewLedger(store, log)
	orderService := service.NewOrderService(engine, ledger, store, tokens, publisher, log)
	catalogService := service.NewCatalogService(store, log)
	identityService := service.NewIdentityService(provider, log)

	httpHandler := handler.NewHTTPHandler(catalogService, orderService, identityService, log)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	if kafkaPublisher != nil {
		kafkaPublisher.Close()
		log.Info("kafka publisher stopped")
	}

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
