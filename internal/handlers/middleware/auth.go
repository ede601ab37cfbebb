package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/handlers/render"
	"github.com/nkiryanov/petauth/internal/handlers/userctx"
	"github.com/nkiryanov/petauth/internal/models"
)

const (
	authHeaderName = "Authorization"
	authScheme     = "Bearer"
)

type accessVerifier interface {
	VerifyAccess(accessToken string) (models.AccessPayload, error)
}

// Authenticate request by access token in 'Authorization: Bearer <token>' header
// Authenticated user is put to request context, see userctx.FromContext
// onFail is called for every rejected request, may be nil
func AuthMiddleware(v accessVerifier, onFail func(error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(v, r)
			if err != nil {
				if onFail != nil {
					onFail(err)
				}
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(v accessVerifier, r *http.Request) (models.AccessPayload, error) {
	header := r.Header.Get(authHeaderName)
	if header == "" {
		return models.AccessPayload{}, fmt.Errorf("%w: no %s header", apperrors.ErrInvalidToken, authHeaderName)
	}

	// Scheme and token may be separated by any run of spaces
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
		return models.AccessPayload{}, fmt.Errorf("%w: expected %s scheme", apperrors.ErrInvalidToken, authScheme)
	}
	token := parts[1]

	user, err := v.VerifyAccess(token)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidToken) {
			err = fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
		}
		return models.AccessPayload{}, err
	}

	return user, nil
}
