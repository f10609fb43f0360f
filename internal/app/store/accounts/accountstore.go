// internal/app/store/accounts/accountstore.go
package accountstore

// Terminology: Account Identifiers
//   - AccountID / accountID: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Username: The human-readable string users sign in with (exact, case-sensitive)

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/app/system/normalize"
	"github.com/dalemusser/stratafight/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateUsername is returned when the username belongs to another account.
	ErrDuplicateUsername = errors.New("an account with this username already exists")
	// ErrDuplicateEmail is returned when the email belongs to another account.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	errBadRole        = errors.New("invalid role")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), now: time.Now}
}

// dupErr maps a duplicate-key error to the field whose unique index fired.
func dupErr(err error) error {
	if strings.Contains(err.Error(), "uniq_users_email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

func decodeOne(res *mongo.SingleResult) (*models.Account, error) {
	var a models.Account
	if err := res.Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account after normalizing fields. Role defaults to fan.
func (s *Store) Create(ctx context.Context, a models.Account) (models.Account, error) {
	a.ID = primitive.NewObjectID()
	a.Username = normalize.Username(a.Username)
	a.Email = normalize.Email(a.Email)
	a.DisplayName = normalize.Name(a.DisplayName)

	if a.Role == "" {
		a.Role = models.RoleFan
	}
	if !models.IsValidRole(a.Role) {
		return models.Account{}, errBadRole
	}
	a.FighterFlag = a.Role == models.RoleFighter
	if a.Challenges == nil {
		a.Challenges = []primitive.ObjectID{}
	}
	if a.FavoriteFighters == nil {
		a.FavoriteFighters = []primitive.ObjectID{}
	}

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, dupErr(err)
		}
		return models.Account{}, err
	}
	return a, nil
}

// GetByID loads an account by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"_id": id}))
}

// GetByIDs loads multiple accounts by their ObjectIDs. Missing ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetByUsername looks up an account by exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return decodeOne(s.c.FindOne(ctx, bson.M{"username": normalize.Username(username)}))
}

// Taken reports whether username or email already belong to any account.
func (s *Store) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	usernameTaken, err = s.exists(ctx, bson.M{"username": normalize.Username(username)})
	if err != nil {
		return false, false, err
	}
	emailTaken, err = s.exists(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return false, false, err
	}
	return usernameTaken, emailTaken, nil
}

// UsernameExistsForOther checks if a username belongs to an account other than excludeID.
func (s *Store) UsernameExistsForOther(ctx context.Context, username string, excludeID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, bson.M{
		"username": normalize.Username(username),
		"_id":      bson.M{"$ne": excludeID},
	})
}

// EmailExistsForOther checks if an email belongs to an account other than excludeID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	})
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// ProfileUpdate holds the optional general profile fields.
// All fields are pointers - nil means "don't update this field".
type ProfileUpdate struct {
	Username    *string
	Email       *string
	DisplayName *string
	Bio         *string
}

// UpdateProfile applies the non-nil fields and returns the updated account.
// Returns ErrDuplicateUsername / ErrDuplicateEmail when a unique index fires.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.Account, error) {
	set := bson.M{"updated_at": s.now()}
	if upd.Username != nil {
		set["username"] = normalize.Username(*upd.Username)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.DisplayName != nil {
		set["display_name"] = normalize.Name(*upd.DisplayName)
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}

	a, err := decodeOne(s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
	if err != nil && wafflemongo.IsDup(err) {
		return nil, dupErr(err)
	}
	return a, err
}

// PromoteToFighter flips a fan account to fighter in a single write, setting
// role and is_fighter together and seeding an empty fighter profile.
// Returns ErrNotFound when no fan account with id exists (including when the
// account is already a fighter).
func (s *Store) PromoteToFighter(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return decodeOne(s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": models.RoleFan},
		bson.M{"$set": bson.M{
			"role":       models.RoleFighter,
			"is_fighter": true,
			"fighter": models.FighterProfile{
				FightingStyles: []string{},
			},
			"updated_at": s.now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
}

// FighterUpdate holds the optional fighter profile fields. Nested objects
// are merged per sub-field. A non-nil empty OtherStyle clears it.
type FighterUpdate struct {
	Age            *int
	Weight         *float64
	Height         *float64
	Wins           *int
	Losses         *int
	Draws          *int
	FightingStyles []string // nil means unchanged
	OtherStyle     *string
	City           *string
	State          *string
	Country        *string
	Instagram      *string
	Twitter        *string
	YouTube        *string
	Website        *string
}

// UpdateFighterProfile merges the supplied fighter fields. Only fighter
// accounts match; anything else yields ErrNotFound.
func (s *Store) UpdateFighterProfile(ctx context.Context, id primitive.ObjectID, upd FighterUpdate) (*models.Account, error) {
	set := bson.M{"updated_at": s.now()}
	unset := bson.M{}

	setInt := func(key string, v *int) {
		if v != nil {
			set[key] = *v
		}
	}
	setFloat := func(key string, v *float64) {
		if v != nil {
			set[key] = *v
		}
	}
	setStr := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	setLocation := func(key string, v *string) {
		if v != nil {
			val := strings.TrimSpace(*v)
			set["fighter.location."+key] = val
			set["fighter.location_ci."+key] = text.Fold(val)
		}
	}

	setInt("fighter.age", upd.Age)
	setFloat("fighter.weight", upd.Weight)
	setFloat("fighter.height", upd.Height)
	setInt("fighter.record.wins", upd.Wins)
	setInt("fighter.record.losses", upd.Losses)
	setInt("fighter.record.draws", upd.Draws)
	if upd.FightingStyles != nil {
		set["fighter.fighting_styles"] = upd.FightingStyles
	}
	if upd.OtherStyle != nil {
		if v := strings.TrimSpace(*upd.OtherStyle); v != "" {
			set["fighter.other_style"] = v
		} else {
			unset["fighter.other_style"] = ""
		}
	}
	setLocation("city", upd.City)
	setLocation("state", upd.State)
	setLocation("country", upd.Country)
	setStr("fighter.social_links.instagram", upd.Instagram)
	setStr("fighter.social_links.twitter", upd.Twitter)
	setStr("fighter.social_links.youtube", upd.YouTube)
	setStr("fighter.social_links.website", upd.Website)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return decodeOne(s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": models.RoleFighter},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
}

// AddChallengeRef adds the challenge id to each account's challenges set.
// Repeated calls are no-ops.
func (s *Store) AddChallengeRef(ctx context.Context, challengeID primitive.ObjectID, accountIDs ...primitive.ObjectID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": accountIDs}},
		bson.M{
			"$addToSet": bson.M{"challenges": challengeID},
			"$set":      bson.M{"updated_at": s.now()},
		},
	)
	return err
}

// SyncChallengeRefs brings an account's challenges set in line with refs.
// snapshot is the set as read before refs was computed: only ids in
// snapshot and absent from refs are pulled, so a reference added after the
// snapshot by a concurrent create survives. Returns true when a write
// changed the document.
func (s *Store) SyncChallengeRefs(ctx context.Context, id primitive.ObjectID, snapshot, refs []primitive.ObjectID) (bool, error) {
	missing, stale := diffRefs(snapshot, refs)
	changed := false
	if len(missing) > 0 {
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$addToSet": bson.M{"challenges": bson.M{"$each": missing}}})
		if err != nil {
			return false, err
		}
		changed = res.ModifiedCount > 0
	}
	// $addToSet and $pull cannot share a field in one update.
	if len(stale) > 0 {
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$pull": bson.M{"challenges": bson.M{"$in": stale}}})
		if err != nil {
			return changed, err
		}
		changed = changed || res.ModifiedCount > 0
	}
	return changed, nil
}

// diffRefs returns the ids in refs missing from snapshot and the ids in
// snapshot no longer in refs.
func diffRefs(snapshot, refs []primitive.ObjectID) (missing, stale []primitive.ObjectID) {
	have := make(map[primitive.ObjectID]bool, len(snapshot))
	for _, id := range snapshot {
		have[id] = true
	}
	want := make(map[primitive.ObjectID]bool, len(refs))
	for _, id := range refs {
		want[id] = true
		if !have[id] {
			missing = append(missing, id)
			have[id] = true
		}
	}
	for _, id := range snapshot {
		if !want[id] {
			stale = append(stale, id)
			want[id] = true
		}
	}
	return missing, stale
}

// ForEachID calls fn with every account id, in _id order.
func (s *Store) ForEachID(ctx context.Context, fn func(id primitive.ObjectID) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return err
		}
		if err := fn(row.ID); err != nil {
			return err
		}
	}
	return cur.Err()
}

// AddFavorite adds fighterID to the account's favorites set.
func (s *Store) AddFavorite(ctx context.Context, id, fighterID primitive.ObjectID) (*models.Account, error) {
	return decodeOne(s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"favorite_fighters": fighterID},
			"$set":      bson.M{"updated_at": s.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
}

// RemoveFavorite removes fighterID from the account's favorites set.
func (s *Store) RemoveFavorite(ctx context.Context, id, fighterID primitive.ObjectID) (*models.Account, error) {
	return decodeOne(s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"favorite_fighters": fighterID},
			"$set":  bson.M{"updated_at": s.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	))
}

// FighterFilter narrows the fighter directory. Zero values are ignored.
type FighterFilter struct {
	Weight  *float64
	Height  *float64
	Styles  []string // any-of
	City    string   // case/diacritic-insensitive substring
	State   string
	Country string
}

func (f FighterFilter) bson() bson.M {
	filter := bson.M{"is_fighter": true}
	if f.Weight != nil {
		filter["fighter.weight"] = *f.Weight
	}
	if f.Height != nil {
		filter["fighter.height"] = *f.Height
	}
	if len(f.Styles) > 0 {
		filter["fighter.fighting_styles"] = bson.M{"$in": f.Styles}
	}
	contains := func(key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			filter["fighter.location_ci."+key] = primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(v))}
		}
	}
	contains("city", f.City)
	contains("state", f.State)
	contains("country", f.Country)
	return filter
}

// FindFighters returns one page of fighters matching f, newest first, plus
// the total number of matches.
func (s *Store) FindFighters(ctx context.Context, f FighterFilter, page storeutil.Page) ([]models.Account, int64, error) {
	filter := f.bson()

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := page.FindOptions().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	accounts := []models.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
