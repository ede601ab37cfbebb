package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const createToken = `
INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at)
VALUES (?, ?, ?, ?, ?)
`

func (r *RefreshTokenRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (models.RefreshToken, error) {
	token := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}

	_, err := r.DB.ExecContext(ctx, createToken, token.ID, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

const getToken = `
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
FROM refresh_tokens
WHERE id = ?
`

func (r *RefreshTokenRepo) Get(ctx context.Context, tokenID uuid.UUID) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.DB.QueryRowContext(ctx, getToken, tokenID).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.RefreshToken{}, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return models.RefreshToken{}, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `
UPDATE refresh_tokens
SET revoked_at = ?
WHERE id = ?
`

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, revokeToken, revokedAt.UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
