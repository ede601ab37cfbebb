package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/petauth/internal/apperrors"
	"github.com/nkiryanov/petauth/internal/handlers/render"
	"github.com/nkiryanov/petauth/internal/logger"
	"github.com/nkiryanov/petauth/internal/metrics"
	"github.com/nkiryanov/petauth/internal/models"
)

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newTokenPairResponse(pair models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func handleRegister(s authService, o observer, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=3,max=50"`
		Password string `json:"password" validate:"required,min=8,max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := s.Register(r.Context(), data.Username, data.Password)
		o.Observe(metrics.OpRegister, err)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSONStatus(w, newTokenPairResponse(pair), http.StatusCreated)
	})
}

func handleLogin(s authService, o observer, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := s.Login(r.Context(), data.Username, data.Password)
		o.Observe(metrics.OpLogin, err)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, newTokenPairResponse(pair))
	})
}

func handleRefresh(s authService, o observer, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		pair, err := s.Refresh(r.Context(), data.RefreshToken)
		o.Observe(metrics.OpRefresh, err)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.JSON(w, newTokenPairResponse(pair))
	})
}

func handleLogout(s authService, o observer, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		err = s.Logout(r.Context(), data.RefreshToken)
		o.Observe(metrics.OpLogout, err)
		if err != nil {
			serviceError(w, l, err)
			return
		}

		render.NoContent(w)
	})
}

// Render auth service error. Unknown errors are logged and hidden from client
func serviceError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUsernameTaken):
		render.ServiceError(w, "Username already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidRefreshToken):
		render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrRefreshTokenExpired):
		render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidToken):
		render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
	default:
		l.Error("auth service error", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
