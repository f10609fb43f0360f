package challengeflow

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/stratafight/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/domain/models"
)

// FightDetailsPatch carries the fight detail fields a caller supplied.
// Nil fields are left as they are; a non-nil empty string clears the field.
type FightDetailsPatch struct {
	ProposedDate *time.Time `json:"proposed_date,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Rules        *string    `json:"rules,omitempty"`
	WeightClass  *string    `json:"weight_class,omitempty"`
	Stakes       *string    `json:"stakes,omitempty"`
}

func (p FightDetailsPatch) empty() bool {
	return p.ProposedDate == nil && p.Location == nil && p.Rules == nil &&
		p.WeightClass == nil && p.Stakes == nil
}

// validate checks the supplied fields. A proposed date must be strictly
// later than now when it is set.
func (p FightDetailsPatch) validate(res *inputval.Result, prefix string, now time.Time) {
	if p.ProposedDate != nil && !p.ProposedDate.After(now) {
		res.Add(prefix+"proposed_date", "Proposed date must be in the future.")
	}
	if p.Location != nil {
		checkText(res, prefix+"location", cleanText(*p.Location), models.MaxLocationLength, false)
	}
	if p.Rules != nil {
		checkText(res, prefix+"rules", cleanText(*p.Rules), models.MaxRulesLength, false)
	}
	if p.Stakes != nil {
		checkText(res, prefix+"stakes", cleanText(*p.Stakes), models.MaxStakesLength, false)
	}
	if p.WeightClass != nil {
		wc := strings.TrimSpace(*p.WeightClass)
		if wc != "" && !models.IsValidWeightClass(wc) {
			res.Add(prefix+"weight_class", "Weight class must be one of: "+strings.Join(models.AllWeightClasses(), ", ")+".")
		}
	}
}

// apply merges the supplied fields into d.
func (p FightDetailsPatch) apply(d *models.FightDetails) {
	if p.ProposedDate != nil {
		t := p.ProposedDate.UTC()
		d.ProposedDate = &t
	}
	if p.Location != nil {
		d.Location = cleanText(*p.Location)
	}
	if p.Rules != nil {
		d.Rules = cleanText(*p.Rules)
	}
	if p.WeightClass != nil {
		d.WeightClass = strings.TrimSpace(*p.WeightClass)
	}
	if p.Stakes != nil {
		d.Stakes = cleanText(*p.Stakes)
	}
}

// cleanText strips markup and surrounding whitespace from user text.
func cleanText(s string) string {
	return htmlsanitize.StripTags(s)
}

func checkText(res *inputval.Result, field, v string, max int, required bool) {
	if v == "" {
		if required {
			res.Add(field, field+" is required.")
		}
		return
	}
	if utf8.RuneCountInString(v) > max {
		res.Add(field, field+" must be at most "+strconv.Itoa(max)+" characters.")
	}
}
