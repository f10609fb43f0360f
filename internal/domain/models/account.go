// internal/domain/models/account.go
package models

// Terminology: Account Identifiers
//   - AccountID / accountID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Username: The human-readable string users sign in with (exact, case-sensitive)

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account role. It is the single source of truth for whether an
// account is a fighter; IsFighter is derived from it.
type Role string

// Account roles
const (
	RoleFan     Role = "fan"
	RoleFighter Role = "fighter"
)

// AllRoles returns all valid account roles.
func AllRoles() []Role {
	return []Role{
		RoleFan,
		RoleFighter,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role Role) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Account represents a user of the application (fan or fighter).
//
// Fighter attributes live in the Fighter sub-document, which is only
// populated once the account has been promoted with BecomeFighter.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	Role Role `bson:"role" json:"role"`
	// FighterFlag mirrors Role for indexing; it is always written together
	// with role and never read back as a source of truth.
	FighterFlag bool `bson:"is_fighter" json:"-"`

	DisplayName string `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Bio         string `bson:"bio,omitempty" json:"bio,omitempty"`

	Fighter *FighterProfile `bson:"fighter,omitempty" json:"fighter,omitempty"`

	// Back-references; the challenges collection is the source of truth.
	Challenges       []primitive.ObjectID `bson:"challenges" json:"challenges"`
	FavoriteFighters []primitive.ObjectID `bson:"favorite_fighters" json:"favorite_fighters"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsFighter reports whether the account has the fighter role.
func (a *Account) IsFighter() bool {
	return a != nil && a.Role == RoleFighter
}

// Profile field limits.
const (
	MaxDisplayNameLength = 100
	MaxBioLength         = 500
	MaxOtherStyleLength  = 100
	MinFighterAge        = 18
)

// FighterProfile holds attributes that are meaningful only for fighters.
type FighterProfile struct {
	Age            int         `bson:"age,omitempty" json:"age,omitempty"`
	Weight         float64     `bson:"weight,omitempty" json:"weight,omitempty"`
	Height         float64     `bson:"height,omitempty" json:"height,omitempty"`
	Record         Record      `bson:"record" json:"record"`
	FightingStyles []string    `bson:"fighting_styles" json:"fighting_styles"`
	OtherStyle     string      `bson:"other_style,omitempty" json:"other_style,omitempty"`
	Location       Location    `bson:"location" json:"location"`
	LocationCI     Location    `bson:"location_ci" json:"-"` // folded copy for case/diacritic-insensitive search
	SocialLinks    SocialLinks `bson:"social_links" json:"social_links"`
}

// Record is a fighter's win/loss/draw record.
type Record struct {
	Wins   int `bson:"wins" json:"wins"`
	Losses int `bson:"losses" json:"losses"`
	Draws  int `bson:"draws" json:"draws"`
}

// Location is where a fighter is based.
type Location struct {
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// SocialLinks are optional public profile links.
type SocialLinks struct {
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	YouTube   string `bson:"youtube,omitempty" json:"youtube,omitempty"`
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
}

// AccountView is the JSON shape returned to clients. It exposes IsFighter as
// a computed field so clients that expect the flag keep working.
type AccountView struct {
	Account
	IsFighter bool `json:"is_fighter"`
}

// View returns the client-facing representation of the account.
func (a Account) View() AccountView {
	return AccountView{Account: a, IsFighter: a.IsFighter()}
}

// Summary is the short participant/sender representation embedded in
// challenge views.
type Summary struct {
	ID          primitive.ObjectID `json:"id"`
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name,omitempty"`
}

// Summary returns the short representation of the account.
func (a Account) Summary() Summary {
	return Summary{ID: a.ID, Username: a.Username, DisplayName: a.DisplayName}
}

// Fighting style vocabulary.
const (
	StyleBoxing     = "Boxing"
	StyleKickboxing = "Kickboxing"
	StyleMuayThai   = "Muay Thai"
	StyleBJJ        = "Brazilian Jiu-Jitsu"
	StyleWrestling  = "Wrestling"
	StyleJudo       = "Judo"
	StyleKarate     = "Karate"
	StyleTaekwondo  = "Taekwondo"
	StyleMMA        = "MMA"
	StyleSambo      = "Sambo"
	StyleOther      = "Other"
)

// AllFightingStyles returns the fixed fighting style vocabulary.
func AllFightingStyles() []string {
	return []string{
		StyleBoxing,
		StyleKickboxing,
		StyleMuayThai,
		StyleBJJ,
		StyleWrestling,
		StyleJudo,
		StyleKarate,
		StyleTaekwondo,
		StyleMMA,
		StyleSambo,
		StyleOther,
	}
}

// IsValidFightingStyle checks if a style is in the vocabulary.
func IsValidFightingStyle(style string) bool {
	for _, s := range AllFightingStyles() {
		if s == style {
			return true
		}
	}
	return false
}

// FighterView is the public directory representation of a fighter. It omits
// the email and the account's private reference lists.
type FighterView struct {
	ID          primitive.ObjectID `json:"id"`
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name,omitempty"`
	Bio         string             `json:"bio,omitempty"`
	Role        Role               `json:"role"`
	IsFighter   bool               `json:"is_fighter"`
	Fighter     *FighterProfile    `json:"fighter,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PublicView returns the directory representation of the account.
func (a Account) PublicView() FighterView {
	return FighterView{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Bio:         a.Bio,
		Role:        a.Role,
		IsFighter:   a.IsFighter(),
		Fighter:     a.Fighter,
		CreatedAt:   a.CreatedAt,
	}
}
