package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/eventhub-server/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

const profileColumns = `user_id, email, full_name, city, avatar_key, created_at, updated_at`

type ProfileRepository struct {
	db querier
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM customer_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Create provisions the profile of a new user. Only user_id and email are
// written; a row created concurrently by another request is returned as is.
func (r *ProfileRepository) Create(ctx context.Context, profile model.Profile) (model.Profile, error) {
	query := `
        INSERT INTO customer_profiles (user_id, email, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
        RETURNING ` + profileColumns

	saved, err := scanProfile(r.db.QueryRow(ctx, query, profile.UserID, profile.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByUserID(ctx, profile.UserID)
		}
		return model.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	return saved, nil
}

func (r *ProfileRepository) UpdateFullName(ctx context.Context, userID uuid.UUID, fullName string) (model.Profile, error) {
	return r.update(ctx, "full_name", userID, fullName)
}

func (r *ProfileRepository) UpdateCity(ctx context.Context, userID uuid.UUID, city string) (model.Profile, error) {
	return r.update(ctx, "city", userID, city)
}

func (r *ProfileRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarKey string) (model.Profile, error) {
	return r.update(ctx, "avatar_key", userID, avatarKey)
}

// update sets one column. column is never user input.
func (r *ProfileRepository) update(ctx context.Context, column string, userID uuid.UUID, value string) (model.Profile, error) {
	query := `UPDATE customer_profiles SET ` + column + ` = $2, updated_at = NOW()
        WHERE user_id = $1
        RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to update profile %s: %w", column, err)
	}

	return profile, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.UserID, &p.Email, &p.FullName, &p.City, &p.AvatarKey, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
