package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
)

const maxSessionKeyLen = 64

// CartMerger folds an anonymous session cart into a user's cart.
type CartMerger interface {
	Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (int, error)
}

// ReservationClaimer re-keys an anonymous session's box reservations to a user.
type ReservationClaimer interface {
	ClaimSession(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
}

// Session resolves the owner of carts and reservations. Authenticated
// callers own by user id; anonymous callers get a session cookie, issued on
// first contact. When an authenticated request still carries the anonymous
// cookie, the session cart and reservations move to the user and the cookie
// is dropped once both succeed. merger and claimer may be nil.
func Session(market config.MarketConfig, secure bool, merger CartMerger, claimer ReservationClaimer, logg *logger.Logger) func(http.Handler) http.Handler {
	name := market.SessionCookie
	if name == "" {
		name = "sb_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := readSessionKey(r, name)

			if actor, ok := ActorFromContext(ctx); ok {
				if key != "" && (merger != nil || claimer != nil) {
					if adoptSession(ctx, logg, key, actor.UserID, merger, claimer) {
						clearSessionCookie(w, name, secure)
					}
				}
				next.ServeHTTP(w, r.WithContext(WithOwner(ctx, types.UserOwner(actor.UserID))))
				return
			}

			if key == "" {
				key = strings.ReplaceAll(uuid.NewString(), "-", "")
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    key,
					Path:     "/",
					MaxAge:   int(market.SessionCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if logg != nil {
				ctx = logg.WithSessionKey(ctx, key)
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(ctx, types.SessionOwner(key))))
		})
	}
}

// adoptSession hands the session's cart and reservations to userID. Both
// steps are idempotent, so a partial failure is retried on the next request.
func adoptSession(ctx context.Context, logg *logger.Logger, key string, userID uuid.UUID, merger CartMerger, claimer ReservationClaimer) bool {
	ok := true
	if merger != nil {
		merged, err := merger.Merge(ctx, key, userID)
		switch {
		case err != nil:
			ok = false
			if logg != nil {
				logg.Error(logg.WithSessionKey(ctx, key), "cart.merge_failed", err)
			}
		case merged > 0 && logg != nil:
			logg.Info(logg.WithField(ctx, "merged_lines", merged), "cart.merged")
		}
	}
	if claimer != nil {
		moved, err := claimer.ClaimSession(ctx, key, userID)
		switch {
		case err != nil:
			ok = false
			if logg != nil {
				logg.Error(logg.WithSessionKey(ctx, key), "reservations.claim_failed", err)
			}
		case moved > 0 && logg != nil:
			logg.Info(logg.WithField(ctx, "claimed_reservations", moved), "reservations.claimed")
		}
	}
	return ok
}

func readSessionKey(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" || len(value) > maxSessionKeyLen {
		return ""
	}
	for _, c := range value {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
			return ""
		}
	}
	return value
}

func clearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
