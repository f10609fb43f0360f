package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/app/system/normalize"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxLocationPart = 100

// ProfilePatch holds the general profile fields. Nil means unchanged.
type ProfilePatch struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

// UpdateProfile applies the supplied general fields. A username or email
// that belongs to another account yields DUPLICATE_FIELD.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfilePatch) (*models.Account, error) {
	res := &inputval.Result{}
	if p.Username == nil && p.Email == nil && p.DisplayName == nil && p.Bio == nil {
		res.Add("body", "No profile fields supplied.")
	}
	if p.Username != nil && !inputval.IsValidUsername(normalize.Username(*p.Username)) {
		res.Add("username", "Username must be 3-30 characters and contain only letters, numbers, underscores, hyphens or dots.")
	}
	if p.Email != nil && !inputval.IsValidEmail(*p.Email) {
		res.Add("email", "A valid email address is required.")
	}
	if p.DisplayName != nil {
		checkLen(res, "display_name", normalize.Name(*p.DisplayName), models.MaxDisplayNameLength)
	}
	if p.Bio != nil {
		bio := htmlsanitize.StripTags(*p.Bio)
		p.Bio = &bio
		checkLen(res, "bio", bio, models.MaxBioLength)
	}
	if err := res.AppError(); err != nil {
		return nil, err
	}

	if p.Username != nil {
		taken, err := s.accounts.UsernameExistsForOther(ctx, *p.Username, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.DuplicateField("username")
		}
	}
	if p.Email != nil {
		taken, err := s.accounts.EmailExistsForOther(ctx, *p.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.DuplicateField("email")
		}
	}

	a, err := s.accounts.UpdateProfile(ctx, id, accountstore.ProfileUpdate{
		Username:    p.Username,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
	})
	switch {
	case errors.Is(err, accountstore.ErrDuplicateUsername):
		return nil, apperr.DuplicateField("username")
	case errors.Is(err, accountstore.ErrDuplicateEmail):
		return nil, apperr.DuplicateField("email")
	case errors.Is(err, accountstore.ErrNotFound):
		return nil, apperr.NotFound("account")
	}
	return a, err
}

// RecordPatch is a partial win/loss/draw record.
type RecordPatch struct {
	Wins   *int `json:"wins"`
	Losses *int `json:"losses"`
	Draws  *int `json:"draws"`
}

// LocationPatch is a partial location.
type LocationPatch struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

// SocialLinksPatch is a partial set of social links. An empty string clears
// a link.
type SocialLinksPatch struct {
	Instagram *string `json:"instagram"`
	Twitter   *string `json:"twitter"`
	YouTube   *string `json:"youtube"`
	Website   *string `json:"website"`
}

// FighterProfilePatch holds the fighter fields. Nested objects are merged
// per sub-field; nil means unchanged.
type FighterProfilePatch struct {
	Age            *int              `json:"age"`
	Weight         *float64          `json:"weight"`
	Height         *float64          `json:"height"`
	Record         *RecordPatch      `json:"record"`
	FightingStyles []string          `json:"fighting_styles"`
	OtherStyle     *string           `json:"other_style"`
	Location       *LocationPatch    `json:"location"`
	SocialLinks    *SocialLinksPatch `json:"social_links"`
}

// UpdateFighterProfile merges the supplied fighter fields. Only fighters may
// call it (NOT_FIGHTER otherwise).
func (s *Service) UpdateFighterProfile(ctx context.Context, id primitive.ObjectID, p FighterProfilePatch) (*models.Account, error) {
	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsFighter() {
		return nil, apperr.NotFighter()
	}

	upd, err := p.toUpdate(current.Fighter)
	if err != nil {
		return nil, err
	}

	a, err := s.accounts.UpdateFighterProfile(ctx, id, upd)
	if errors.Is(err, accountstore.ErrNotFound) {
		return nil, apperr.NotFound("account")
	}
	return a, err
}

// toUpdate validates p against the current profile and converts it to a
// store update.
func (p FighterProfilePatch) toUpdate(current *models.FighterProfile) (accountstore.FighterUpdate, error) {
	if current == nil {
		current = &models.FighterProfile{}
	}
	res := &inputval.Result{}
	upd := accountstore.FighterUpdate{
		Age:        p.Age,
		Weight:     p.Weight,
		Height:     p.Height,
		OtherStyle: p.OtherStyle,
	}

	if p.Age != nil && *p.Age < models.MinFighterAge {
		res.Add("age", fmt.Sprintf("Age must be at least %d.", models.MinFighterAge))
	}
	if p.Weight != nil && *p.Weight <= 0 {
		res.Add("weight", "Weight must be a positive number.")
	}
	if p.Height != nil && *p.Height <= 0 {
		res.Add("height", "Height must be a positive number.")
	}

	if r := p.Record; r != nil {
		for _, f := range []struct {
			name string
			v    *int
		}{{"record.wins", r.Wins}, {"record.losses", r.Losses}, {"record.draws", r.Draws}} {
			if f.v != nil && *f.v < 0 {
				res.Add(f.name, "Record values cannot be negative.")
			}
		}
		upd.Wins, upd.Losses, upd.Draws = r.Wins, r.Losses, r.Draws
	}

	styles := current.FightingStyles
	if p.FightingStyles != nil {
		styles = dedupe(p.FightingStyles)
		for _, st := range styles {
			if !models.IsValidFightingStyle(st) {
				res.Add("fighting_styles", "Fighting styles must be from: "+strings.Join(models.AllFightingStyles(), ", ")+".")
				break
			}
		}
		upd.FightingStyles = styles
	}

	// other_style is required exactly when "Other" is among the styles.
	other := current.OtherStyle
	if p.OtherStyle != nil {
		other = strings.TrimSpace(*p.OtherStyle)
		checkLen(res, "other_style", other, models.MaxOtherStyleLength)
	}
	hasOther := contains(styles, models.StyleOther)
	switch {
	case hasOther && other == "":
		res.Add("other_style", "Other style is required when Other is selected.")
	case !hasOther && other != "" && p.OtherStyle != nil:
		res.Add("other_style", "Other style is only allowed when Other is selected.")
	case !hasOther && other != "":
		// Dropping "Other" clears the stale free-text style.
		empty := ""
		upd.OtherStyle = &empty
	}

	if l := p.Location; l != nil {
		for _, f := range []struct {
			name string
			v    *string
		}{{"location.city", l.City}, {"location.state", l.State}, {"location.country", l.Country}} {
			if f.v != nil {
				checkLen(res, f.name, strings.TrimSpace(*f.v), maxLocationPart)
			}
		}
		upd.City, upd.State, upd.Country = l.City, l.State, l.Country
	}

	if sl := p.SocialLinks; sl != nil {
		for _, f := range []struct {
			name string
			v    *string
		}{
			{"social_links.instagram", sl.Instagram},
			{"social_links.twitter", sl.Twitter},
			{"social_links.youtube", sl.YouTube},
			{"social_links.website", sl.Website},
		} {
			if f.v != nil && strings.TrimSpace(*f.v) != "" && !inputval.IsValidHTTPURL(*f.v) {
				res.Add(f.name, "Link must be a valid URL starting with http:// or https://.")
			}
		}
		upd.Instagram, upd.Twitter, upd.YouTube, upd.Website = sl.Instagram, sl.Twitter, sl.YouTube, sl.Website
	}

	if err := res.AppError(); err != nil {
		return accountstore.FighterUpdate{}, err
	}
	return upd, nil
}

func checkLen(res *inputval.Result, field, v string, max int) {
	if utf8.RuneCountInString(v) > max {
		res.Add(field, fmt.Sprintf("%s must be at most %d characters.", field, max))
	}
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
