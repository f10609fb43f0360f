package accounts

import (
	"context"
	"errors"
	"strings"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FighterQuery filters the fighter directory. Zero values are ignored.
type FighterQuery struct {
	Weight  *float64
	Height  *float64
	Styles  []string
	City    string
	State   string
	Country string
	Page    int64
	Limit   int64
}

// FighterList is one page of the fighter directory.
type FighterList struct {
	Fighters   []models.FighterView `json:"fighters"`
	Pagination storeutil.Pagination `json:"pagination"`
}

// ListFighters returns one page of fighters matching q, newest first.
func (s *Service) ListFighters(ctx context.Context, q FighterQuery) (*FighterList, error) {
	res := &inputval.Result{}
	if q.Weight != nil && *q.Weight <= 0 {
		res.Add("weight", "Weight must be a positive number.")
	}
	if q.Height != nil && *q.Height <= 0 {
		res.Add("height", "Height must be a positive number.")
	}
	for _, st := range q.Styles {
		if !models.IsValidFightingStyle(st) {
			res.Add("styles", "Fighting styles must be from: "+strings.Join(models.AllFightingStyles(), ", ")+".")
			break
		}
	}
	if err := res.AppError(); err != nil {
		return nil, err
	}

	page := storeutil.NewPage(q.Page, q.Limit, s.defaultLimit, s.maxLimit)
	found, total, err := s.accounts.FindFighters(ctx, accountstore.FighterFilter{
		Weight:  q.Weight,
		Height:  q.Height,
		Styles:  q.Styles,
		City:    q.City,
		State:   q.State,
		Country: q.Country,
	}, page)
	if err != nil {
		return nil, err
	}

	out := make([]models.FighterView, 0, len(found))
	for _, a := range found {
		out = append(out, a.PublicView())
	}
	return &FighterList{Fighters: out, Pagination: page.Meta(total)}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Favorites                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// AddFavorite adds fighterID to the account's favorites and returns the
// resulting list. The target must be a fighter other than the caller.
func (s *Service) AddFavorite(ctx context.Context, id, fighterID primitive.ObjectID) ([]models.FighterView, error) {
	if id == fighterID {
		return nil, apperr.ValidationField("fighter_id", "You cannot favorite yourself.")
	}
	target, err := s.accounts.GetByID(ctx, fighterID)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFound("fighter")
	}
	if err != nil {
		return nil, err
	}
	if !target.IsFighter() {
		return nil, apperr.TargetNotFighter()
	}

	a, err := s.accounts.AddFavorite(ctx, id, fighterID)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, err
	}
	return s.favorites(ctx, a)
}

// RemoveFavorite removes fighterID from the account's favorites. Removing an
// id that is not a favorite is a no-op.
func (s *Service) RemoveFavorite(ctx context.Context, id, fighterID primitive.ObjectID) ([]models.FighterView, error) {
	a, err := s.accounts.RemoveFavorite(ctx, id, fighterID)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, err
	}
	return s.favorites(ctx, a)
}

// ListFavorites returns the account's favorite fighters in the order they
// were added.
func (s *Service) ListFavorites(ctx context.Context, id primitive.ObjectID) ([]models.FighterView, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.favorites(ctx, a)
}

func (s *Service) favorites(ctx context.Context, a *models.Account) ([]models.FighterView, error) {
	found, err := s.accounts.GetByIDs(ctx, a.FavoriteFighters)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Account, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}
	out := make([]models.FighterView, 0, len(a.FavoriteFighters))
	for _, fid := range a.FavoriteFighters {
		if f, ok := byID[fid]; ok && f.IsFighter() {
			out = append(out, f.PublicView())
		}
	}
	return out, nil
}
