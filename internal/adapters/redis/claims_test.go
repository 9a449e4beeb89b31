package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "listings_pipeline/internal/adapters/redis"
)

func newClaims(t *testing.T) (*redisad.Claims, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return redisad.NewWithClient(c), mr
}

func TestClaim_SecondClaimIsDuplicate(t *testing.T) {
	claims, mr := newClaims(t)
	ctx := context.Background()
	key := "load:in/listings.csv#1"

	ok, err := claims.Claim(ctx, key, time.Hour)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = claims.Claim(ctx, key, time.Hour)
	if err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("ttl: %v", ttl)
	}
}

func TestClaim_ExpiresAndRelease(t *testing.T) {
	claims, mr := newClaims(t)
	ctx := context.Background()

	if ok, _ := claims.Claim(ctx, "a", time.Minute); !ok {
		t.Fatal("expected claim")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := claims.Claim(ctx, "a", time.Minute); !ok {
		t.Fatal("expected claim after expiry")
	}

	if err := claims.Release(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("a") {
		t.Fatal("key should be gone after release")
	}
	if ok, _ := claims.Claim(ctx, "a", time.Minute); !ok {
		t.Fatal("expected claim after release")
	}
}

func TestClaim_ServerDown(t *testing.T) {
	claims, mr := newClaims(t)
	mr.Close()
	if _, err := claims.Claim(context.Background(), "a", time.Minute); err == nil {
		t.Fatal("expected error with redis down")
	}
}
