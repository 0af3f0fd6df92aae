package httpapi

import (
	"context"

	"github.com/estate-hub/estate-hub/internal/application/auth"
)

type authContextKey string

const actorKey authContextKey = "actor"

func withActor(ctx context.Context, a auth.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func actorFromContext(ctx context.Context) (auth.Actor, bool) {
	a, ok := ctx.Value(actorKey).(auth.Actor)
	return a, ok
}
