package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/petauth/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// Username uniqueness is enforced by the storage itself
	// If user with username exists already has to return error apperrors.ErrDuplicateUsername
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username (exact, case-sensitive match)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Create token record. ID and CreatedAt are generated by the storage
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (models.RefreshToken, error)

	// Return the token record even if it expired or revoked
	// If not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenID uuid.UUID) (models.RefreshToken, error)

	// Set token revocation time unconditionally
	// Revoking missing or already revoked token is not an error
	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error
}

type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo

	// Run fn in a transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
