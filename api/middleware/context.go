package middleware

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
)

type contextKey string

const (
	ctxActor contextKey = "actor"
	ctxOwner contextKey = "owner"
)

// ActorFromContext returns the authenticated caller, if any.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	if ctx == nil {
		return auth.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(auth.Actor)
	return actor, ok
}

// UserIDFromContext returns the authenticated user id as a string.
func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

// OwnerFromContext returns the cart/reservation owner resolved by Session.
func OwnerFromContext(ctx context.Context) types.Owner {
	if ctx == nil {
		return types.Owner{}
	}
	if owner, ok := ctx.Value(ctxOwner).(types.Owner); ok {
		return owner
	}
	return types.Owner{}
}

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// WithOwner injects the resolved owner into the context.
func WithOwner(ctx context.Context, owner types.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}

// RequireActor returns the authenticated caller or an unauthorized error.
func RequireActor(ctx context.Context) (auth.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return actor, nil
}
