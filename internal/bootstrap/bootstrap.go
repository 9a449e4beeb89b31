// Package bootstrap builds the adapters selected by configuration. Both
// binaries share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "listings_pipeline/internal/adapters/amqp"
	"listings_pipeline/internal/adapters/gcs"
	"listings_pipeline/internal/adapters/localfs"
	redisad "listings_pipeline/internal/adapters/redis"
	"listings_pipeline/internal/app"
	"listings_pipeline/internal/domain"
	"listings_pipeline/internal/shared"
	bqwarehouse "listings_pipeline/internal/storage/bigquery"
	mysqlrepo "listings_pipeline/internal/storage/mysql"
	"listings_pipeline/internal/storage/postgres"
	"listings_pipeline/internal/storage/ratelimit"
)

// Closers releases clients in reverse order of creation.
type Closers []func() error

func (c *Closers) add(f func() error) { *c = append(*c, f) }

func (c Closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

func ObjectStore(ctx context.Context, cfg shared.Config, cl *Closers) (domain.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "local":
		log.Info().Str("dir", cfg.LocalStorageDir).Msg("object store: local filesystem")
		return localfs.New(cfg.LocalStorageDir), nil
	case "gcs":
		s, err := gcs.New(ctx)
		if err != nil {
			return nil, err
		}
		cl.add(s.Close)
		log.Info().Msg("object store: cloud storage")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// Warehouse opens the configured backend, throttled by WAREHOUSE_INSERT_RPS.
func Warehouse(ctx context.Context, cfg shared.Config, cl *Closers) (domain.ListingWarehouse, error) {
	var wh domain.ListingWarehouse
	switch cfg.WarehouseBackend {
	case "bigquery":
		w, err := bqwarehouse.New(ctx, cfg.GCPProject, cfg.DatasetID, cfg.TableID)
		if err != nil {
			return nil, err
		}
		cl.add(w.Close)
		wh = w
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db.Ping: %w", err)
		}
		cl.add(db.Close)
		wh = mysqlrepo.New(db)
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		cl.add(func() error { pool.Close(); return nil })
		repo, err := postgres.New(pool)
		if err != nil {
			return nil, err
		}
		wh = repo
	default:
		return nil, fmt.Errorf("unknown WAREHOUSE_BACKEND %q", cfg.WarehouseBackend)
	}
	log.Info().Str("backend", cfg.WarehouseBackend).Float64("insert_rps", cfg.InsertRPS).Msg("warehouse ready")
	return ratelimit.Wrap(wh, cfg.InsertRPS), nil
}

// ServiceOptions enables the claim guard and the summary notifier when they
// are configured. Neither is required, so connection problems only warn.
func ServiceOptions(ctx context.Context, cfg shared.Config, cl *Closers) []app.Option {
	var opts []app.Option

	if cfg.RedisAddr != "" {
		claims := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		cl.add(claims.Close)
		if err := claims.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, claims will fail open")
		}
		opts = append(opts, app.WithClaims(claims, cfg.ClaimTTL))
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.ClaimTTL).Msg("duplicate-delivery guard enabled")
	}

	if cfg.AMQPURL != "" {
		n, err := amqpad.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn().Err(err).Msg("amqp unavailable, job summaries will not be published")
		} else {
			cl.add(n.Close)
			opts = append(opts, app.WithNotifier(n))
			log.Info().Str("exchange", cfg.AMQPExchange).Msg("job summaries published")
		}
	}
	return opts
}
