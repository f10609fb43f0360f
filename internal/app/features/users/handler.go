// Package users provides the authenticated account endpoints.
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/system/accounts"
	"github.com/dalemusser/stratafight/internal/app/system/auditlog"
	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/users.
type Handler struct {
	accounts    *accounts.Service
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new users Handler. auditLogger may be nil.
func NewHandler(svc *accounts.Service, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{accounts: svc, auditLogger: auditLogger, logger: logger}
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	a, err := h.accounts.GetAccount(r.Context(), caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", a.View())
}

// UpdateMe handles PATCH /me with a partial {username, email, display_name, bio}.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	var in accounts.ProfilePatch
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	a, err := h.accounts.UpdateProfile(r.Context(), caller.ID, in)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "Profile updated.", a.View())
}

// BecomeFighter handles POST /me/become-fighter. Tokens issued before the
// promotion still carry the fan role; role checks re-read the account.
func (h *Handler) BecomeFighter(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	a, err := h.accounts.BecomeFighter(r.Context(), caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	h.auditLogger.BecameFighter(r, a.ID)
	jsonutil.OK(w, "You are now a fighter.", a.View())
}

// UpdateFighterProfile handles PATCH /me/fighter-profile.
func (h *Handler) UpdateFighterProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	var in accounts.FighterProfilePatch
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	a, err := h.accounts.UpdateFighterProfile(r.Context(), caller.ID, in)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "Fighter profile updated.", a.View())
}

// Favorites handles GET /me/favorites.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	favs, err := h.accounts.ListFavorites(r.Context(), caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", map[string]any{"fighters": favs, "count": len(favs)})
}

// AddFavorite handles POST /me/favorites/{fighterID}.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.changeFavorite(w, r, h.accounts.AddFavorite, "Fighter added to favorites.")
}

// RemoveFavorite handles DELETE /me/favorites/{fighterID}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.changeFavorite(w, r, h.accounts.RemoveFavorite, "Fighter removed from favorites.")
}

type favoriteFunc func(ctx context.Context, id, fighterID primitive.ObjectID) ([]models.FighterView, error)

func (h *Handler) changeFavorite(w http.ResponseWriter, r *http.Request, op favoriteFunc, message string) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	fighterID, err := inputval.ParseObjectID(chi.URLParam(r, "fighterID"), "fighter_id")
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	favs, err := op(r.Context(), caller.ID, fighterID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, message, map[string]any{"fighters": favs, "count": len(favs)})
}
