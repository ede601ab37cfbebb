package handlers

import (
	"net/http"

	"github.com/nkiryanov/petauth/internal/handlers/render"
)

const serviceName = "auth-service"

func handleHealth() http.Handler {
	type response struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Status: "ok", Service: serviceName})
	})
}
