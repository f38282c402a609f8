package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/eventhub-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db querier
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Upsert returns the user mapped to identity's (provider, subject), creating
// it on first sign-in. Email and metadata follow the provider's latest
// values.
func (r *UserRepository) Upsert(ctx context.Context, identity model.Identity) (model.User, error) {
	const query = `
        INSERT INTO users (id, provider, subject, email, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (provider, subject) DO UPDATE
            SET email = EXCLUDED.email, metadata = EXCLUDED.metadata, updated_at = NOW()
        RETURNING id, email, metadata, created_at, updated_at
    `

	metadata := identity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var user model.User
	err := r.db.QueryRow(ctx, query,
		uuid.New(), identity.Provider, identity.Subject, identity.Email, metadata,
	).Scan(&user.ID, &user.Email, &user.Metadata, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	const query = `SELECT id, email, metadata, created_at, updated_at FROM users WHERE id = $1`

	var user model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Metadata, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}
