package ctxutil

import (
	"context"
	"errors"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	UserIDKey    ctxKey = "user_id"
	RoleKey      ctxKey = "role"
	UserEmailKey ctxKey = "user_email"
)

const RoleAdmin = "admin"

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, reqID)
}

func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(RequestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func GetUserIDCtx(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(UserIDKey).(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("user id not found in context")
}

func GetRoleCtx(ctx context.Context) string {
	if v, ok := ctx.Value(RoleKey).(string); ok {
		return v
	}
	return ""
}

func GetUserEmailCtx(ctx context.Context) string {
	if v, ok := ctx.Value(UserEmailKey).(string); ok {
		return v
	}
	return ""
}
