package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	w, err := client.FixedWindowAllow(ctx, "cart:session:a", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Allowed || w.Count != 1 || w.ResetIn != time.Minute {
		t.Fatalf("unexpected first window %+v", w)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].key != "sb:rate_limit:cart:session:a" {
		t.Fatalf("expected expire on first hit, got %+v", mock.expireCalls)
	}

	mock.ttl["sb:rate_limit:cart:session:a"] = 42 * time.Second
	w, err = client.FixedWindowAllow(ctx, "cart:session:a", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Allowed || w.Count != 2 || w.ResetIn != 42*time.Second {
		t.Fatalf("unexpected second window %+v", w)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	w, err = client.FixedWindowAllow(ctx, "cart:session:a", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestFixedWindowAllowRepairsMissingTTL(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("reserve:ip:10.0.0.1")
	mock.incr[key] = 5

	w, err := client.FixedWindowAllow(ctx, "reserve:ip:10.0.0.1", 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Count != 6 || w.ResetIn != time.Minute {
		t.Fatalf("unexpected window %+v", w)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected ttl repair on a key without expiry")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache:6380/3", DB: 1, PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("url settings should win: %+v", opts)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("config should fill unset options: %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2})
	if err != nil || opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("unexpected address options %+v err=%v", opts, err)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
}

func TestJSONCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	type locations struct {
		Branches []string `json:"branches"`
	}
	var miss locations
	found, err := client.GetJSON(ctx, client.CacheKey("vendor-locations"), &miss)
	if err != nil {
		t.Fatalf("unexpected miss error: %v", err)
	}
	if found {
		t.Fatalf("expected cache miss")
	}

	if err := client.SetJSON(ctx, client.CacheKey("vendor-locations"), locations{Branches: []string{"a", "b"}}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	var hit locations
	found, err = client.GetJSON(ctx, client.CacheKey("vendor-locations"), &hit)
	if err != nil || !found {
		t.Fatalf("expected cache hit, found=%v err=%v", found, err)
	}
	if len(hit.Branches) != 2 {
		t.Fatalf("unexpected cached value %+v", hit)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.RateLimitKey("cart:10.0.0.1"); got != "sb:rate_limit:cart:10.0.0.1" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.LockKey("cron-worker", "prod"); got != "sb:lock:cron-worker:prod" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.CacheKey("catalog", "", "recommendations"); got != "sb:cache:catalog:recommendations" {
		t.Fatalf("cache key should skip empty parts, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	ttl         map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	m.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	if ttl, ok := m.ttl[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	return redis.NewDurationResult(-1, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
