package handlers

import (
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petauth/internal/repository/postgres"
	"github.com/nkiryanov/petauth/internal/service/auth"
	"github.com/nkiryanov/petauth/internal/testutil"
)

// Run production router over postgres transaction that is rolled back when fn returns
func runTx(pg testutil.PostgresContainer, t *testing.T, cfg auth.Config, fn func(srv testServer)) {
	testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
		fn(startServerWithStorage(t, postgres.NewStorage(tx), cfg))
	})
}

func Test_Router_Postgres(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("session lifecycle", func(t *testing.T) {
		runTx(pg, t, auth.Config{}, func(srv testServer) {
			resp := srv.post(t, "/auth/register", `{"username": "alice", "password": "password123"}`)
			require.Equalf(t, http.StatusCreated, resp.Code, "not expected code. Body: %s", resp.Body)
			registered := decodePair(t, resp.Body)

			resp = srv.post(t, "/auth/register", `{"username": "alice", "password": "password123"}`)
			require.Equal(t, http.StatusConflict, resp.Code)

			resp = srv.post(t, "/auth/login", `{"username": "alice", "password": "password123"}`)
			require.Equalf(t, http.StatusOK, resp.Code, "not expected code. Body: %s", resp.Body)
			loggedIn := decodePair(t, resp.Body)

			resp = srv.do(t, http.MethodGet, "/auth/me", "", http.Header{"Authorization": {"Bearer " + loggedIn.AccessToken}})
			require.Equal(t, http.StatusOK, resp.Code)
			require.Contains(t, resp.Body, `"username":"alice"`)

			resp = srv.post(t, "/auth/refresh", `{"refreshToken": "`+loggedIn.RefreshToken+`"}`)
			require.Equalf(t, http.StatusOK, resp.Code, "not expected code. Body: %s", resp.Body)
			refreshed := decodePair(t, resp.Body)
			require.NotEqual(t, loggedIn.RefreshToken, refreshed.RefreshToken)

			resp = srv.post(t, "/auth/logout", `{"refreshToken": "`+loggedIn.RefreshToken+`"}`)
			require.Equal(t, http.StatusNoContent, resp.Code)

			resp = srv.post(t, "/auth/refresh", `{"refreshToken": "`+loggedIn.RefreshToken+`"}`)
			require.Equal(t, http.StatusUnauthorized, resp.Code)
			require.JSONEq(t, `{"error": "service_error", "message": "Invalid refresh token"}`, resp.Body)

			// Other sessions are not affected by logout
			resp = srv.post(t, "/auth/refresh", `{"refreshToken": "`+registered.RefreshToken+`"}`)
			require.Equal(t, http.StatusOK, resp.Code)
			resp = srv.post(t, "/auth/refresh", `{"refreshToken": "`+refreshed.RefreshToken+`"}`)
			require.Equal(t, http.StatusOK, resp.Code)
		})
	})

	t.Run("refresh twice fail if revoke on refresh", func(t *testing.T) {
		runTx(pg, t, auth.Config{RevokeOnRefresh: true}, func(srv testServer) {
			pair, err := srv.Auth.Register(t.Context(), "nk", "StrongEnoughPassword")
			require.NoError(t, err)

			resp := srv.post(t, "/auth/refresh", `{"refreshToken": "`+pair.Refresh.Value+`"}`)
			require.Equalf(t, http.StatusOK, resp.Code, "not expected code. Body: %s", resp.Body)

			resp = srv.post(t, "/auth/refresh", `{"refreshToken": "`+pair.Refresh.Value+`"}`)
			require.Equal(t, http.StatusUnauthorized, resp.Code)
			require.JSONEq(t, `{"error": "service_error", "message": "Invalid refresh token"}`, resp.Body)
		})
	})
}
