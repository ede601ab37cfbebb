package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/petauth/internal/handlers/render"
	"github.com/nkiryanov/petauth/internal/handlers/userctx"
	"github.com/nkiryanov/petauth/internal/metrics"
)

// Return user authenticated by access token. Storage is not touched
func handleUserMe(o observer) http.Handler {
	type response struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		o.Observe(metrics.OpMe, nil)
		render.JSON(w, response{ID: user.UserID, Username: user.Username})
	})
}
