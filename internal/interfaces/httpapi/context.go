package httpapi

import "context"

type contextKey string

const (
	actorContextKey     contextKey = "acting_user"
	requestIDContextKey contextKey = "request_id"
)

func withActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func actorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorContextKey).(string)
	return actor, ok && actor != ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
