package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/surprisebag-backend/api/responses"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/redis"
)

// Limiter is the fixed-window counter backing RateLimit.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (redis.RateWindow, error)
}

// RateLimitPolicy bounds how often one owner may hit a route group.
type RateLimitPolicy struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimit applies a fixed-window limit keyed by the authenticated user, or
// by client address for anonymous callers. Limiter errors fail open.
func RateLimit(policy RateLimitPolicy, limiter Limiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || policy.Limit <= 0 || policy.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := policy.Scope + ":" + rateLimitSubject(r)

			state, err := limiter.FixedWindowAllow(ctx, scope, int64(policy.Limit), policy.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "rate_limit_scope", policy.Scope), "rate_limit.unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !state.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(state.ResetIn, policy.Window)))
				err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, slow down").
					WithDetails(map[string]any{"scope": policy.Scope, "count": state.Count})
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds the remaining window up to whole seconds.
func retryAfterSeconds(resetIn, window time.Duration) int {
	if resetIn <= 0 {
		resetIn = window
	}
	return int(math.Ceil(resetIn.Seconds()))
}

// rateLimitSubject ignores anonymous session keys: clients pick or drop their
// own cookie, so only the address bounds them.
func rateLimitSubject(r *http.Request) string {
	owner := OwnerFromContext(r.Context())
	if owner.IsUser() {
		return owner.LogKey()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
