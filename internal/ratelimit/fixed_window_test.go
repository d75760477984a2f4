package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()
	if !limiter.Allow(ctx, "ip-1") || !limiter.Allow(ctx, "ip-1") {
		t.Fatalf("first two requests should pass")
	}
	if limiter.Allow(ctx, "ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "ip-2") {
		t.Fatalf("other keys have their own quota")
	}
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	ctx := context.Background()
	if !limiter.Allow(ctx, "ip") || limiter.Allow(ctx, "ip") {
		t.Fatalf("expected one hit per window")
	}
	limiter.now = func() time.Time { return base.Add(time.Minute) }
	if !limiter.Allow(ctx, "ip") {
		t.Fatalf("new window should reset the quota")
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	redis.Close()
	if limiter.Allow(context.Background(), "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	if l, err := NewRedisFixedWindowLimiter("", "", "p", 1, time.Second); err == nil || l != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Second); err == nil {
		t.Fatalf("expected constructor error for zero limit")
	}
}
