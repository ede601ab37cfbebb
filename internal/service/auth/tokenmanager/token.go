package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/models"
)

const (
	// Minimal secret length in bytes for both signing contexts
	MinSecretLength = 32

	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

// Values of 'typ' claim. Guards against token confusion in addition to distinct secrets
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Type     string    `json:"typ"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	Type    string    `json:"typ"`
	UserID  uuid.UUID `json:"userId"`
	TokenID uuid.UUID `json:"tokenId"`
}

// Token manager with sensible default
type Config struct {
	// Secrets to sign access and refresh tokens
	// Required, at least MinSecretLength bytes each, must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// One signing context: its own key and lifetime
type signer struct {
	key []byte
	ttl time.Duration
}

// Access and refresh contexts are different types so they can't be mixed up
type accessSigner struct{ signer }
type refreshSigner struct{ signer }

// Signs and verifies access and refresh tokens
// Stateless, safe for concurrent use
type TokenManager struct {
	alg     jwt.SigningMethod
	access  accessSigner
	refresh refreshSigner

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if len(cfg.AccessSecret) < MinSecretLength {
		return nil, fmt.Errorf("access secret must be at least %d bytes", MinSecretLength)
	}
	if len(cfg.RefreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("refresh secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q, HMAC is expected", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		alg:     alg,
		access:  accessSigner{signer{key: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL}},
		refresh: refreshSigner{signer{key: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL}},
		now:     time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.access.ttl
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refresh.ttl
}

// Sign access token with access secret
func (m *TokenManager) SignAccess(p models.AccessPayload) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	claims := AccessTokenClaims{
		RegisteredClaims: m.registered(now, m.access.ttl),
		Type:             typeAccess,
		UserID:           p.UserID,
		Username:         p.Username,
	}

	return m.sign(claims, m.access.signer, claims.ExpiresAt.Time)
}

// Sign refresh token with refresh secret
func (m *TokenManager) SignRefresh(p models.RefreshPayload) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	claims := RefreshTokenClaims{
		RegisteredClaims: m.registered(now, m.refresh.ttl),
		Type:             typeRefresh,
		UserID:           p.UserID,
		TokenID:          p.TokenID,
	}

	return m.sign(claims, m.refresh.signer, claims.ExpiresAt.Time)
}

// Parse and validate access token
// Any failure is reported as apperrors.ErrInvalidToken
func (m *TokenManager) VerifyAccess(token string) (models.AccessPayload, error) {
	claims := &AccessTokenClaims{}
	if err := m.parse(token, claims, m.access.signer); err != nil {
		return models.AccessPayload{}, err
	}

	if claims.Type != typeAccess || claims.UserID == uuid.Nil {
		return models.AccessPayload{}, fmt.Errorf("%w: malformed access claims", apperrors.ErrInvalidToken)
	}

	return models.AccessPayload{UserID: claims.UserID, Username: claims.Username}, nil
}

// Parse and validate refresh token
// Any failure is reported as apperrors.ErrInvalidToken
func (m *TokenManager) VerifyRefresh(token string) (models.RefreshPayload, error) {
	claims := &RefreshTokenClaims{}
	if err := m.parse(token, claims, m.refresh.signer); err != nil {
		return models.RefreshPayload{}, err
	}

	if claims.Type != typeRefresh || claims.UserID == uuid.Nil || claims.TokenID == uuid.Nil {
		return models.RefreshPayload{}, fmt.Errorf("%w: malformed refresh claims", apperrors.ErrInvalidToken)
	}

	return models.RefreshPayload{UserID: claims.UserID, TokenID: claims.TokenID}, nil
}

func (m *TokenManager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *TokenManager) sign(claims jwt.Claims, s signer, expiresAt time.Time) (models.IssuedToken, error) {
	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(s.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims, s signer) error {
	// base64 decoder skips CR and LF, so such tokens have to be rejected before parsing
	if !isCompactJWS(token) {
		return fmt.Errorf("%w: unexpected characters in token", apperrors.ErrInvalidToken)
	}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	return nil
}

// Report whether token consists of base64url characters and dots only
func isCompactJWS(token string) bool {
	if token == "" {
		return false
	}

	for _, c := range []byte(token) {
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}

	return true
}
