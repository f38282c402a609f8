package context

import (
	"context"

	"github.com/dtroode/eventhub-server/internal/model"
)

type contextKey int

const (
	userKey contextKey = iota
	clientIDKey
)

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the authenticated user and the client id of an HTTP
// request in its context.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user set by SetUserToContext. ok is false
// for anonymous requests.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}

func (m *Manager) SetClientIDToContext(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

func (m *Manager) GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}
