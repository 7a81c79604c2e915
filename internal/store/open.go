// Package store opens the configured backend and hands out its stores.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/musiccamp/internal/config"
	"github.com/geocoder89/musiccamp/internal/db"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/geocoder89/musiccamp/internal/repo/memory"
	"github.com/geocoder89/musiccamp/internal/repo/mongodb"
	"github.com/geocoder89/musiccamp/internal/repo/postgres"
)

type Backend struct {
	Driver string
	Stores enrollment.Stores
	Ping   func(ctx context.Context) error
	Close  func()
	// Migrate prepares indexes or tables. Safe to repeat.
	Migrate func(ctx context.Context) error
}

func Open(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := db.NewMongo(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		database := client.Database(cfg.MongoDBName)
		log.Info("mongo connected", "db", cfg.MongoDBName, "transactions", cfg.MongoTransactions)

		return &Backend{
			Driver: cfg.StoreDriver,
			Stores: mongodb.NewStores(client, database, prom, mongodb.Options{Transactions: cfg.MongoTransactions}),
			Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
			Close: func() {
				_ = client.Disconnect(context.Background())
			},
			Migrate: func(ctx context.Context) error {
				return db.EnsureIndexes(ctx, database)
			},
		}, nil

	case config.StorePostgres:
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("postgres connected")

		return &Backend{
			Driver: cfg.StoreDriver,
			Stores: postgres.NewStores(pool, prom),
			Ping:   pool.Ping,
			Close:  pool.Close,
			Migrate: func(ctx context.Context) error {
				return db.Migrate(ctx, pool)
			},
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")

		return &Backend{
			Driver:  cfg.StoreDriver,
			Stores:  memory.NewStore().Stores(),
			Ping:    func(context.Context) error { return nil },
			Close:   func() {},
			Migrate: func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
