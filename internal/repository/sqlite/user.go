package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `
INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	now := time.Now().UTC()
	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Username:       username,
		HashedPassword: hashedPassword,
	}

	_, err := r.DB.ExecContext(ctx, createUser, user.ID, user.Username, user.HashedPassword, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, apperrors.ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `
SELECT id, created_at, updated_at, username, password_hash
FROM users
WHERE id = ?
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `
SELECT id, created_at, updated_at, username, password_hash
FROM users
WHERE username = ?
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, getUserByUsername, username))
}

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.HashedPassword)

	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
}
