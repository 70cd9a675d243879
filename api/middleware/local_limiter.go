package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/surprisebag-backend/pkg/redis"
)

const localLimiterIdleTTL = 10 * time.Minute

// LocalLimiter is a per-process token bucket used when redis is not
// configured. Each scope refills limit tokens per window with a burst of limit,
// so limits hold per instance rather than across the fleet.
type LocalLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*localBucket
	now      func() time.Time
	lastScan time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{buckets: map[string]*localBucket{}, now: time.Now}
}

func (l *LocalLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (redis.RateWindow, error) {
	if limit <= 0 || window <= 0 {
		return redis.RateWindow{Allowed: true}, nil
	}
	now := l.now()
	l.mu.Lock()
	l.prune(now)
	b, ok := l.buckets[scope]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))}
		l.buckets[scope] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		used := limit - int64(b.limiter.TokensAt(now))
		return redis.RateWindow{Allowed: true, Count: used, ResetIn: window}, nil
	}
	res := b.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return redis.RateWindow{Allowed: false, Count: limit + 1, ResetIn: delay}, nil
}

// prune drops buckets idle for longer than localLimiterIdleTTL. Callers hold mu.
func (l *LocalLimiter) prune(now time.Time) {
	if now.Sub(l.lastScan) < time.Minute {
		return
	}
	l.lastScan = now
	for scope, b := range l.buckets {
		if now.Sub(b.lastSeen) > localLimiterIdleTTL {
			delete(l.buckets, scope)
		}
	}
}
