package challenges

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a chi.Router with the challenge endpoints mounted.
// Callers must wrap it with auth.RequireBearer.
//
// When mounted at /api/challenges:
//   - POST   /api/challenges                 - create
//   - GET    /api/challenges/my              - list the caller's challenges
//   - GET    /api/challenges/pending         - challenges awaiting the caller
//   - GET    /api/challenges/{id}            - fetch one
//   - PATCH  /api/challenges/{id}/accept     - accept (challenged only)
//   - PATCH  /api/challenges/{id}/decline    - decline (challenged only)
//   - DELETE /api/challenges/{id}            - cancel (challenger only)
//   - PATCH  /api/challenges/{id}/details    - update fight details
//   - POST   /api/challenges/{id}/messages   - add a message
//   - PATCH  /api/challenges/{id}/complete   - complete an accepted challenge
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/my", h.Mine)
	r.Get("/pending", h.Pending)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
		r.Patch("/accept", h.Accept)
		r.Patch("/decline", h.Decline)
		r.Patch("/details", h.UpdateDetails)
		r.Post("/messages", h.AddMessage)
		r.Patch("/complete", h.Complete)
	})
	return r
}
