package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileStore defines persistence operations for customer profiles.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error)
	Create(ctx context.Context, profile Profile) (Profile, error)
	UpdateFullName(ctx context.Context, userID uuid.UUID, fullName string) (Profile, error)
	UpdateCity(ctx context.Context, userID uuid.UUID, city string) (Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarKey string) (Profile, error)
}

// Profile is a customer profile row. Only the fields the gateway reads or
// provisions are mapped; the rest of the row belongs to profile management.
type Profile struct {
	UserID    uuid.UUID
	Email     string
	FullName  *string
	City      *string
	AvatarKey *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
