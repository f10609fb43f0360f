// Package fighters provides the public fighter directory.
package fighters

import (
	"net/http"

	"github.com/dalemusser/stratafight/internal/app/system/accounts"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafight/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves /api/fighters.
type Handler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

// NewHandler creates a new fighters Handler.
func NewHandler(svc *accounts.Service, logger *zap.Logger) *Handler {
	return &Handler{accounts: svc, logger: logger}
}

// List handles GET /?weight&height&styles=a,b&city&state&country&page&limit.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res := &inputval.Result{}
	q := accounts.FighterQuery{
		Weight:  inputval.Number(res, "weight", query.Get(r, "weight")),
		Height:  inputval.Number(res, "height", query.Get(r, "height")),
		Styles:  normalize.List(query.Get(r, "styles")),
		City:    normalize.QueryParam(query.Get(r, "city")),
		State:   normalize.QueryParam(query.Get(r, "state")),
		Country: normalize.QueryParam(query.Get(r, "country")),
		Page:    inputval.PositiveInt(res, "page", query.Get(r, "page")),
		Limit:   inputval.PositiveInt(res, "limit", query.Get(r, "limit")),
	}
	if err := res.AppError(); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	list, err := h.accounts.ListFighters(r.Context(), q)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", list)
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ParseObjectID(chi.URLParam(r, "id"), "id")
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	a, err := h.accounts.GetFighter(r.Context(), id)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", a.PublicView())
}
