package models

import (
	"time"

	"github.com/google/uuid"
)

// Persisted refresh token record
// The record is never deleted: expiration and revocation are logical
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil if token not revoked
}

func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Token is usable strictly before its expiration moment
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Payload signed into access token
type AccessPayload struct {
	UserID   uuid.UUID
	Username string
}

// Payload signed into refresh token. TokenID references RefreshToken.ID
type RefreshPayload struct {
	UserID  uuid.UUID
	TokenID uuid.UUID
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
