package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/events"
	"github.com/nikolayk812/storefront/internal/migrations"
	"github.com/nikolayk812/storefront/internal/orders"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "storefront"

// App holds the cart, the order history and the order placer for one
// session, all backed by the configured storage.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Cart    *cart.Store
	History *orders.History
	Placer  port.OrderPlacer

	closers []func() error
}

// New connects to storage and loads the cart and order history. Storage that
// cannot be reached is logged and the session runs in memory.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cfg.Validate: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{Config: cfg, Log: log}

	kv, err := a.openStorage(ctx)
	if err != nil {
		log.Warn("storage unavailable, running in memory",
			zap.String("backend", cfg.Storage.Backend),
			zap.Error(err))
		kv = nil
	}

	cur := cfg.CurrencyUnit()

	historyOpts := []orders.Option{
		orders.WithLogger(log.Named("orders")),
		orders.WithCurrency(cur),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, publisher.Close)
		historyOpts = append(historyOpts, orders.WithPublisher(publisher))
	}

	a.Cart = cart.NewStore(ctx, kv,
		cart.WithLogger(log.Named("cart")),
		cart.WithCurrency(cur))
	a.History = orders.NewHistory(ctx, kv, historyOpts...)
	a.Placer = checkout.NewBreakerPlacer(
		checkout.NewSimulatedPlacer(cfg.Checkout.PlaceOrderLatency),
		checkout.BreakerSettings{
			MaxFailures: cfg.Checkout.Breaker.MaxFailures,
			OpenTimeout: cfg.Checkout.Breaker.OpenTimeout,
		},
		log.Named("placer"))

	return a, nil
}

// NewCheckout enters checkout with the current cart.
func (a *App) NewCheckout(userID, email string) (*checkout.Machine, error) {
	return checkout.New(a.Cart, a.History, a.Placer, userID, email,
		checkout.WithLogger(a.Log.Named("checkout")))
}

// Close releases storage connections and flushes pending events.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil

	return errors.Join(errs...)
}

func (a *App) openStorage(ctx context.Context) (port.KeyValueStore, error) {
	switch a.Config.Storage.Backend {
	case config.BackendPostgres:
		return a.openPostgres(ctx)
	case config.BackendRedis:
		return a.openRedis(ctx)
	default:
		return repository.NewMemoryKV(), nil
	}
}

func (a *App) openPostgres(ctx context.Context) (port.KeyValueStore, error) {
	dsn := a.Config.Postgres.DSN

	if err := migrations.Up(dsn); err != nil {
		return nil, fmt.Errorf("migrations.Up: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	return repository.NewKV(pool), nil
}

func (a *App) openRedis(ctx context.Context) (port.KeyValueStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping: %w", err)
	}

	a.closers = append(a.closers, client.Close)

	return repository.NewRedisKV(client, redisKeyPrefix), nil
}
