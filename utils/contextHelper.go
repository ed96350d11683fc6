package utils

import "context"

type contextKey string

const (
	contextKeyUserId        contextKey = "UserId"
	contextKeyUserName      contextKey = "UserName"
	contextKeyCorrelationId contextKey = "CorrelationId"
)

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(contextKeyUserId).(int)
	return v, ok
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKeyUserName).(string)
	return v, ok
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKeyCorrelationId).(string)
	return v, ok
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, contextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return context.WithValue(ctx, contextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, contextKeyCorrelationId, correlationId)
}

// ActingUserId returns a pointer usable for nullable "done by" columns.
func ActingUserId(ctx context.Context) *int {
	if id, ok := GetUserIdFromContext(ctx); ok && id > 0 {
		return &id
	}
	return nil
}
