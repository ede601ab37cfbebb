package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/models"
	"github.com/nkiryanov/petauth/internal/repository"
)

// Length in bytes of random secondary identifier stored with every refresh token record
const tokenHashLength = 32

// Interface to create or verify user password hashes
type PasswordHasher interface {
	// Generate salted hash from password
	Hash(password string) (string, error)

	// Report whether password matches known hashedPassword
	// Must be protected against timing attacks and never match malformed hash
	Verify(hashedPassword string, password string) bool
}

// Access and refresh token codec
type TokenManager interface {
	SignAccess(p models.AccessPayload) (models.IssuedToken, error)
	VerifyAccess(token string) (models.AccessPayload, error)

	SignRefresh(p models.RefreshPayload) (models.IssuedToken, error)
	VerifyRefresh(token string) (models.RefreshPayload, error)

	RefreshTTL() time.Duration
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Clock. time.Now if not set
	Now func() time.Time

	// Revoke consumed refresh token when new pair issued
	// By default rotation is additive: old refresh token stays valid until it expires or logged out
	RevokeOnRefresh bool
}

// Auth service
// Holds no mutable state, safe for concurrent use
type AuthService struct {
	// Codec to sign and verify access and refresh tokens
	tokens TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Long term data: users and refresh tokens
	storage repository.Storage

	now             func() time.Time
	revokeOnRefresh bool

	// Hash verified on login when user not exists, so both failures cost the same
	dummyHash string
}

func NewService(cfg Config, tokens TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	dummyHash, err := hasher.Hash("dummy-password-never-matches")
	if err != nil {
		return nil, fmt.Errorf("hasher failed to hash dummy password: %w", err)
	}

	return &AuthService{
		tokens:          tokens,
		hasher:          hasher,
		storage:         storage,
		now:             now,
		revokeOnRefresh: cfg.RevokeOnRefresh,
		dummyHash:       dummyHash,
	}, nil
}

// Register new user and issue token pair
// Returns apperrors.ErrUsernameTaken if username is not available
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	// Fast path only: storage unique constraint is the real guard
	_, err := s.storage.User().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return models.TokenPair{}, apperrors.ErrUsernameTaken
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, fmt.Errorf("error while looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateUsername) {
			return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrUsernameTaken, err)
		}
		return models.TokenPair{}, fmt.Errorf("error while creating user: %w", err)
	}

	return s.issuePair(ctx, s.storage, user)
}

// Login user by username and password
// Unknown username and wrong password are both reported as apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	found := err == nil
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return models.TokenPair{}, fmt.Errorf("error while looking up user: %w", err)
	}

	hash := user.HashedPassword
	if !found {
		hash = s.dummyHash
	}

	// Always verify something so unknown user is not faster than wrong password
	ok := s.hasher.Verify(hash, password)
	if !found || !ok {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	return s.issuePair(ctx, s.storage, user)
}

// Exchange refresh token to a new token pair
//
// Possible errors:
//   - apperrors.ErrInvalidToken: token not verified
//   - apperrors.ErrInvalidRefreshToken: token record not found or revoked
//   - apperrors.ErrRefreshTokenExpired: token record expired
//   - apperrors.ErrUserNotFound: token owner not exists anymore
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	record, err := s.storage.Refresh().Get(ctx, payload.TokenID)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.TokenPair{}, apperrors.ErrInvalidRefreshToken
	case err != nil:
		return models.TokenPair{}, fmt.Errorf("error while getting refresh token: %w", err)
	}

	now := s.now()

	switch {
	case record.IsRevoked():
		return models.TokenPair{}, apperrors.ErrInvalidRefreshToken
	case record.IsExpired(now):
		return models.TokenPair{}, apperrors.ErrRefreshTokenExpired
	case record.UserID != payload.UserID:
		return models.TokenPair{}, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.storage.User().GetUserByID(ctx, record.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, apperrors.ErrUserNotFound
	case err != nil:
		return models.TokenPair{}, fmt.Errorf("error while getting user: %w", err)
	}

	if !s.revokeOnRefresh {
		return s.issuePair(ctx, s.storage, user)
	}

	var pair models.TokenPair
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := storage.Refresh().Revoke(ctx, record.ID, now); err != nil {
			return fmt.Errorf("error while revoking refresh token: %w", err)
		}

		pair, err = s.issuePair(ctx, storage, user)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Revoke refresh token
// Revoking already revoked or expired token is ok
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	err = s.storage.Refresh().Revoke(ctx, payload.TokenID, s.now())
	if err != nil {
		return fmt.Errorf("error while revoking refresh token: %w", err)
	}

	return nil
}

// Verify access token and return its payload
// Storage is not touched
func (s *AuthService) VerifyAccess(accessToken string) (models.AccessPayload, error) {
	return s.tokens.VerifyAccess(accessToken)
}

// Sign access token, persist refresh token record and sign refresh token that references it
// Performs exactly one storage write
func (s *AuthService) issuePair(ctx context.Context, storage repository.Storage, user models.User) (models.TokenPair, error) {
	access, err := s.tokens.SignAccess(models.AccessPayload{UserID: user.ID, Username: user.Username})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("access token could not be signed: %w", err)
	}

	tokenHash, err := randomHex(tokenHashLength)
	if err != nil {
		return models.TokenPair{}, err
	}

	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	record, err := storage.Refresh().Create(ctx, user.ID, tokenHash, expiresAt)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh token could not be saved: %w", err)
	}

	refresh, err := s.tokens.SignRefresh(models.RefreshPayload{UserID: user.ID, TokenID: record.ID})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh token could not be signed: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random generator failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}
