package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/handler"
	"storefront-be/internal/idempotency"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/outbox"
	"storefront-be/internal/pricing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	breakerMaxFailures = 5
	breakerOpenTimeout = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg)
	defer database.Close()

	rdb := newRedisClient(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
	}

	limiter := middleware.NewLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.Cleanup(ctx)

	if publisher := newPublisher(cfg); publisher != nil {
		poller := outbox.NewPoller(outbox.NewRepository(), database, publisher, cfg.OutboxInterval)
		go poller.Run(ctx)
	} else {
		log.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           setupRouter(cfg, database, rdb, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// setupRouter wires repositories and services around one connection pool.
// rdb may be nil, in which case checkout replays are answered from the
// orders table alone.
func setupRouter(cfg *config.Config, database *sql.DB, rdb *redis.Client, limiter *middleware.Limiter) http.Handler {
	txRunner := db.NewTxRunner(database)

	reservations := inventory.NewReservationManager(inventory.NewRepository(), time.Now)
	calculator := pricing.NewCalculator(pricing.NewRepository())
	cartRepo := cart.NewRepository()

	cartSvc := cart.NewService(
		txRunner,
		database,
		cartRepo,
		inventory.NewRepository(),
		reservations,
		calculator,
		cfg.ReservationTTL,
	)

	checkoutSvc := order.NewCheckoutService(order.CheckoutDeps{
		Tx:          txRunner,
		Reader:      database,
		Carts:       cartRepo,
		Finalizer:   reservations,
		Pricer:      calculator,
		Orders:      order.NewRepository(),
		Events:      outbox.NewRepository(),
		Idempotency: newIdempotencyStore(rdb, cfg.IdempotencyTTL),
	})

	return handler.New(cartSvc, checkoutSvc, database).Router(handler.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	})
}

func newRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func newIdempotencyStore(rdb *redis.Client, ttl time.Duration) order.IdempotencyStore {
	if rdb == nil {
		return nil
	}
	return idempotency.NewStore(rdb, ttl)
}

// newPublisher returns nil when no broker is configured.
func newPublisher(cfg *config.Config) outbox.Publisher {
	writer := outbox.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	if writer == nil {
		return nil
	}
	return outbox.NewBreakerPublisher(outbox.NewKafkaPublisher(writer), breakerMaxFailures, breakerOpenTimeout)
}
