package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a chi.Router with the account endpoints mounted.
// Callers must wrap it with auth.RequireBearer.
//
// When mounted at /api/users:
//   - GET    /api/users/me
//   - PATCH  /api/users/me
//   - POST   /api/users/me/become-fighter
//   - PATCH  /api/users/me/fighter-profile
//   - GET    /api/users/me/favorites
//   - POST   /api/users/me/favorites/{fighterID}
//   - DELETE /api/users/me/favorites/{fighterID}
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/me", func(r chi.Router) {
		r.Get("/", h.Me)
		r.Patch("/", h.UpdateMe)
		r.Post("/become-fighter", h.BecomeFighter)
		r.Patch("/fighter-profile", h.UpdateFighterProfile)
		r.Get("/favorites", h.Favorites)
		r.Post("/favorites/{fighterID}", h.AddFavorite)
		r.Delete("/favorites/{fighterID}", h.RemoveFavorite)
	})
	return r
}
