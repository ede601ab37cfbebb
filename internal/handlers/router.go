package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/petauth/internal/handlers/middleware"
	"github.com/nkiryanov/petauth/internal/logger"
	"github.com/nkiryanov/petauth/internal/metrics"
	"github.com/nkiryanov/petauth/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	observer observer,
	metricsHandler http.Handler,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService, func(err error) {
		observer.Observe(metrics.OpMe, err)
	})

	auth := http.NewServeMux()

	auth.Handle("POST /register", handleRegister(authService, observer, logger))
	auth.Handle("POST /login", handleLogin(authService, observer, logger))
	auth.Handle("POST /refresh", handleRefresh(authService, observer, logger))
	auth.Handle("POST /logout", handleLogout(authService, observer, logger))
	auth.Handle("GET /me", withAuth(handleUserMe(observer)))

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", auth))
	root.Handle("GET /health", handleHealth())
	root.Handle("GET /metrics", metricsHandler)

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUsernameTaken if username not available
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrInvalidCredentials if user not found or password is wrong
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Exchange refresh token to new token pair
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Revoke refresh token
	Logout(ctx context.Context, refreshToken string) error

	// Verify access token and return authenticated user
	VerifyAccess(accessToken string) (models.AccessPayload, error)
}

// Receives outcome of every auth operation
type observer interface {
	Observe(operation string, err error)
}
