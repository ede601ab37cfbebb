package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const createToken = `-- name: Create Refresh Token
INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token_hash, created_at, expires_at, revoked_at
`

func (r *RefreshTokenRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, createToken, userID, tokenHash, expiresAt)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return token, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

const getToken = `-- name: Get Refresh Token by id
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
FROM refresh_tokens
WHERE id = $1
`

// Get token
// It should return result even it expired or revoked already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenID uuid.UUID) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenID)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: Revoke Refresh Token
UPDATE refresh_tokens
SET revoked_at = $2
WHERE id = $1
`

// Revoke token. The last revocation wins, missing token is not an error
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error {
	_, err := r.DB.Exec(ctx, revokeToken, tokenID, revokedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt)
	return t, err
}
