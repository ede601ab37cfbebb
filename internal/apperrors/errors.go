package apperrors

import (
	"errors"
)

// Errors returned by the auth service. Each one is an expected outcome of caller input
var (
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
)

// Errors returned by storage implementations
var (
	ErrDuplicateUsername    = errors.New("duplicate username")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
