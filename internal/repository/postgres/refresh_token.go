package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/eventhub-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

const refreshTokenColumns = `id, jti, user_id, token_hash, issued_at, expires_at, revoked_at, rotated_from_jti, created_at, updated_at`

// RefreshTokenRepository persists the refresh half of a browser session.
// Rows are never reused: rotation revokes the old jti and inserts a new one
// pointing back at it through rotated_from_jti.
type RefreshTokenRepository struct {
	db querier
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func scanRefreshToken(row pgx.Row) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := row.Scan(
		&rt.ID, &rt.JTI, &rt.UserID, &rt.TokenHash, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.RotatedFromJTI, &rt.CreatedAt, &rt.UpdatedAt,
	)
	return rt, err
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		token.ID, token.JTI, token.UserID, token.TokenHash, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.RotatedFromJTI,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token %s: %w", token.JTI, err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE jti = $1`

	rt, err := scanRefreshToken(r.db.QueryRow(ctx, query, jti))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.RefreshToken{}, model.ErrNotFound
	case err != nil:
		return model.RefreshToken{}, fmt.Errorf("failed to load refresh token: %w", err)
	}
	return rt, nil
}

// GetSuccessor returns the token that replaced jti on rotation.
func (r *RefreshTokenRepository) GetSuccessor(ctx context.Context, jti string) (model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens
		WHERE rotated_from_jti = $1 ORDER BY issued_at DESC LIMIT 1`

	rt, err := scanRefreshToken(r.db.QueryRow(ctx, query, jti))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.RefreshToken{}, model.ErrNotFound
	case err != nil:
		return model.RefreshToken{}, fmt.Errorf("failed to load successor refresh token: %w", err)
	}
	return rt, nil
}

// RevokeByJTI is idempotent. Revoking an already revoked or unknown jti is
// not an error, so two tabs refreshing the same session do not sign each
// other out.
func (r *RefreshTokenRepository) RevokeByJTI(ctx context.Context, jti string) error {
	if err := r.revoke(ctx, "jti", jti); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllByUser ends every live session of the user, used by sign-out
// everywhere.
func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.revoke(ctx, "user_id", userID); err != nil {
		return fmt.Errorf("failed to revoke sessions of user %s: %w", userID, err)
	}
	return nil
}

// revoke stamps revoked_at on live rows matching column; column is always
// a constant chosen by the caller.
func (r *RefreshTokenRepository) revoke(ctx context.Context, column string, value any) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
		WHERE ` + column + ` = $1 AND revoked_at IS NULL`

	_, err := r.db.Exec(ctx, query, value)
	return err
}

// PurgeExpired deletes tokens that expired before cutoff and reports how
// many rows were removed.
func (r *RefreshTokenRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
