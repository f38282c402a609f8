package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
)

// DefaultRotationGrace is how long a rotated refresh token keeps working
// while its successor is live.
const DefaultRotationGrace = 30 * time.Second

// TokenService issues, rotates and revokes session token pairs. It composes
// the TokenManager with the RefreshTokenStore.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	users      model.UserStore
	refreshTTL time.Duration
	grace      time.Duration
	logger     *logger.Logger
}

// TokenServiceOption configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithRotationGrace sets how long a rotated refresh token is still honoured.
// Zero disables the grace window.
func WithRotationGrace(d time.Duration) TokenServiceOption {
	return func(s *TokenService) {
		s.grace = d
	}
}

func NewTokenService(
	manager model.TokenManager,
	store model.RefreshTokenStore,
	users model.UserStore,
	refreshTTL time.Duration,
	logger *logger.Logger,
	opts ...TokenServiceOption,
) *TokenService {
	s := &TokenService{
		manager:    manager,
		store:      store,
		users:      users,
		refreshTTL: refreshTTL,
		grace:      DefaultRotationGrace,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a new token pair for user and persists the refresh token.
func (s *TokenService) Issue(ctx context.Context, user model.User) (model.TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	if err := s.store.Create(ctx, s.newRecord(user.ID, jti, refresh, nil)); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a presented refresh token: the old one is revoked and a
// new pair is issued for the same user.
//
// A token that was rotated within the grace window, and whose successor is
// still live, resolves the user without rotating again and returns a zero
// TokenPair. The caller keeps the session it has; the browser already holds
// or is about to receive the successor from the request that rotated it.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.TokenPair, model.User, error) {
	userID, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}

	rt, err := s.store.GetByJTI(ctx, jti)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("load refresh: %w", err)
	}

	now := time.Now()
	if err := validateRecord(rt, hashRefresh(presentedRefresh), now); err != nil {
		if !errors.Is(err, model.ErrTokenRevoked) || !s.rotatedWithinGrace(ctx, rt, now) {
			return model.TokenPair{}, model.User{}, err
		}

		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return model.TokenPair{}, model.User{}, fmt.Errorf("load user: %w", err)
		}
		s.logger.Debug("Token service: rotated refresh token reused within grace",
			"user_id", userID,
			"jti", jti)
		return model.TokenPair{}, user, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := s.store.RevokeByJTI(ctx, jti); err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("revoke old refresh: %w", err)
	}

	access, err := s.manager.GenerateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("issue new access: %w", err)
	}

	refresh, newJTI, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("issue new refresh: %w", err)
	}

	rotatedFrom := rt.JTI
	if err := s.store.Create(ctx, s.newRecord(userID, newJTI, refresh, &rotatedFrom)); err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("persist new refresh: %w", err)
	}

	s.logger.Debug("Token service: session refreshed",
		"user_id", userID,
		"rotated_from", rotatedFrom)

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

func (s *TokenService) RevokeByToken(ctx context.Context, presentedRefresh string) error {
	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}
	return s.store.RevokeByJTI(ctx, jti)
}

// RevokeEverywhere revokes every refresh token of the user the presented
// token belongs to.
func (s *TokenService) RevokeEverywhere(ctx context.Context, presentedRefresh string) error {
	userID, _, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}
	return s.RevokeAllForUser(ctx, userID)
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// rotatedWithinGrace reports whether rt was revoked by a rotation less than
// the grace window ago and the token that replaced it is still live.
// Sign-out revokes the successor too, so a signed-out session never
// qualifies.
func (s *TokenService) rotatedWithinGrace(ctx context.Context, rt model.RefreshToken, now time.Time) bool {
	if s.grace <= 0 || rt.RevokedAt == nil || now.Sub(*rt.RevokedAt) > s.grace {
		return false
	}

	next, err := s.store.GetSuccessor(ctx, rt.JTI)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("Token service: failed to load successor token",
				"jti", rt.JTI,
				"error", err.Error())
		}
		return false
	}
	return next.RevokedAt == nil && now.Before(next.ExpiresAt)
}

// GetUser returns the user carried by a valid access token.
func (s *TokenService) GetUser(_ context.Context, accessToken string) (model.User, error) {
	return s.manager.ParseAccessToken(accessToken)
}

func (s *TokenService) newRecord(userID uuid.UUID, jti, refresh string, rotatedFrom *string) model.RefreshToken {
	now := time.Now()
	return model.RefreshToken{
		ID:             uuid.New(),
		JTI:            jti,
		UserID:         userID,
		TokenHash:      hashRefresh(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.refreshTTL),
		RotatedFromJTI: rotatedFrom,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

// validateRecord checks the hash and expiry before revocation, so
// ErrTokenRevoked always refers to a genuine, unexpired token.
func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if subtle.ConstantTimeCompare(rt.TokenHash, presentedHash) != 1 {
		return model.ErrTokenMismatch
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	return nil
}
