// Package requestcontext holds the request-scoped values middleware sets and
// services read: caller identity, request id and the request clock. Code
// running outside a request (workers, sweeps) sees zero values and the wall
// clock.
package requestcontext

import (
	"context"
	"time"

	id "carematch/pkg/domain"
)

type key int

const (
	keyUser key = iota
	keyRole
	keyRequestID
	keyTime
)

func get[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func UserID(ctx context.Context) id.UserID {
	v, _ := get[id.UserID](ctx, keyUser)
	return v
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, keyUser, userID)
}

func Role(ctx context.Context) id.Role {
	v, _ := get[id.Role](ctx, keyRole)
	return v
}

func WithRole(ctx context.Context, role id.Role) context.Context {
	return context.WithValue(ctx, keyRole, role)
}

func RequestID(ctx context.Context) string {
	v, _ := get[string](ctx, keyRequestID)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// Now is the instant the request arrived, so one request stamps every write
// with the same time. Without one it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := get[time.Time](ctx, keyTime); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyTime, t)
}
