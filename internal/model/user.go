package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore maps identity-provider subjects to stable user ids.
type UserStore interface {
	Upsert(ctx context.Context, identity Identity) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// User is the authenticated user derived from the session.
type User struct {
	ID        uuid.UUID
	Email     string
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is what the identity provider reports after a successful code exchange.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Metadata map[string]any
}

// IdentityProvider starts and completes an external sign-in.
type IdentityProvider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (Identity, error)
}
