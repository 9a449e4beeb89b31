package redisad

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"listings_pipeline/internal/adapters/observability"
)

// Claims records processed object events with SET NX so a redelivered
// event is recognised until its key expires.
type Claims struct{ c *redis.Client }

func New(addr, pass string, db int) *Claims {
	return &Claims{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func NewWithClient(c *redis.Client) *Claims { return &Claims{c: c} }

func (r *Claims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.c.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		observability.ObserveClaim("taken")
	} else {
		observability.ObserveClaim("duplicate")
	}
	return ok, nil
}

func (r *Claims) Release(ctx context.Context, key string) error {
	observability.ObserveClaim("released")
	return r.c.Del(ctx, key).Err()
}

func (r *Claims) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Claims) Close() error { return r.c.Close() }
