package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a chi.Router with the auth endpoints mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/signin", h.Signin)
	return r
}
