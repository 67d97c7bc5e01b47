package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tokenbucket/core/config"
	"github.com/dmitrymomot/tokenbucket/integration/database/mongo"
	"github.com/dmitrymomot/tokenbucket/integration/database/opensearch"
	"github.com/dmitrymomot/tokenbucket/integration/database/pg"
	"github.com/dmitrymomot/tokenbucket/integration/database/redis"
	"github.com/dmitrymomot/tokenbucket/integration/storage/s3"
	"github.com/dmitrymomot/tokenbucket/pkg/tokenbucket"
)

// backend bundles a gateway with the lifecycle hooks of its client.
type backend struct {
	gateway tokenbucket.Gateway
	health  func(context.Context) error
	migrate func(context.Context) error // nil when there is no schema
	close   func() error
}

func openBackend(ctx context.Context, name string, log *slog.Logger) (*backend, error) {
	switch name {
	case "memory":
		return openMemory(log), nil
	case "redis":
		return openRedis(ctx)
	case "postgres":
		return openPostgres(ctx, log)
	case "mongo":
		return openMongo(ctx)
	case "opensearch":
		return openOpenSearch(ctx)
	case "s3":
		return openS3(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, name)
	}
}

// openMemory keeps state for the life of the process only, which is useful for
// trying out limits and for tests.
func openMemory(log *slog.Logger) *backend {
	gw := tokenbucket.NewMemoryGateway(
		tokenbucket.WithCleanupInterval(0),
		tokenbucket.WithMemoryGatewayLogger(log),
	)
	return &backend{
		gateway: gw,
		health:  gw.Healthcheck,
		close:   func() error { return nil },
	}
}

func openRedis(ctx context.Context) (*backend, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := redis.NewGateway(client, redis.WithKeyPrefix(cfg.KeyPrefix), redis.WithKeyTTL(cfg.KeyTTL))
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &backend{
		gateway: gw,
		health:  redis.Healthcheck(client),
		close:   client.Close,
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*backend, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := pg.NewGateway(pool, pg.WithTable(cfg.BucketsTable))
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{
		gateway: gw,
		health:  pg.Healthcheck(pool),
		migrate: func(ctx context.Context) error {
			return pg.MigrateBuckets(ctx, pool, cfg, log)
		},
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context) (*backend, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := mongo.NewGateway(client.Database(cfg.Database).Collection(cfg.Collection))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &backend{
		gateway: gw,
		health:  mongo.Healthcheck(client),
		close: func() error {
			return client.Disconnect(context.Background())
		},
	}, nil
}

func openOpenSearch(ctx context.Context) (*backend, error) {
	var cfg opensearch.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := opensearch.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := opensearch.NewGateway(client, opensearch.WithIndex(cfg.Index))
	if err != nil {
		return nil, err
	}

	return &backend{
		gateway: gw,
		health:  opensearch.Healthcheck(client),
		close:   func() error { return nil },
	}, nil
}

func openS3(ctx context.Context) (*backend, error) {
	var cfg s3.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := s3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := s3.NewGateway(client, cfg.Bucket, s3.WithKeyPrefix(cfg.KeyPrefix))
	if err != nil {
		return nil, err
	}

	return &backend{
		gateway: gw,
		health:  s3.Healthcheck(client, cfg.Bucket),
		close:   func() error { return nil },
	}, nil
}
