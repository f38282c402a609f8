package model

import "context"

// ContextManager moves request-scoped identity through context.Context.
type ContextManager interface {
	SetUserToContext(ctx context.Context, user User) context.Context
	GetUserFromContext(ctx context.Context) (User, bool)
	SetClientIDToContext(ctx context.Context, clientID string) context.Context
	GetClientIDFromContext(ctx context.Context) (string, bool)
}
