package fighters

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a chi.Router with the public directory endpoints mounted.
//
// When mounted at /api/fighters:
//   - GET /api/fighters      - filtered, paginated directory
//   - GET /api/fighters/{id} - one fighter
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}
