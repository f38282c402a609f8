package model

import "github.com/google/uuid"

// TokenManager generates and validates session access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(user User) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (token string, jti string, err error)
	ParseAccessToken(token string) (User, error)
	ParseRefreshToken(token string) (userID uuid.UUID, jti string, err error)
}
