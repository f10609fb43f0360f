// internal/app/store/challenges/challengestore.go
package challengestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no challenge matches.
	ErrNotFound = errors.New("challenge not found")
	// ErrActivePairExists is returned when the pair already has an active challenge.
	ErrActivePairExists = errors.New("an active challenge already exists between these accounts")
	// ErrVersionConflict is returned when the challenge changed since it was loaded.
	ErrVersionConflict = errors.New("challenge was modified concurrently")
)

// Participant roles for List.
const (
	RoleAll        = "all"
	RoleChallenger = "challenger"
	RoleChallenged = "challenged"
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("challenges"), now: time.Now}
}

// syncActivePair keeps active_pair present exactly while the status is active.
func syncActivePair(c *models.Challenge) {
	if c.Status.IsActive() {
		c.ActivePair = models.PairKey(c.Challenger, c.Challenged)
	} else {
		c.ActivePair = ""
	}
}

// Insert stores a new challenge. ID, status (pending), version and
// timestamps are assigned here; c is updated in place.
// Returns ErrActivePairExists when the pair already has an active challenge.
func (s *Store) Insert(ctx context.Context, c *models.Challenge) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	syncActivePair(c)
	c.Version = 1

	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrActivePairExists
		}
		return err
	}
	return nil
}

// GetByID loads a challenge.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error) {
	var c models.Challenge
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ExistsActiveBetween reports whether a and b have a pending or accepted
// challenge, in either direction.
func (s *Store) ExistsActiveBetween(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"status": bson.M{"$in": bson.A{models.StatusPending, models.StatusAccepted}},
		"$or": bson.A{
			bson.M{"challenger": a, "challenged": b},
			bson.M{"challenger": b, "challenged": a},
		},
	}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Save writes c back, conditional on the stored version still equalling
// c.Version. On success c.Version is bumped and UpdatedAt refreshed; when
// the stored document moved on nothing is written and ErrVersionConflict
// is returned. created_at is never changed.
func (s *Store) Save(ctx context.Context, c *models.Challenge) error {
	next := *c
	next.Version = c.Version + 1
	next.UpdatedAt = s.now()
	syncActivePair(&next)

	set := bson.M{
		"status":        next.Status,
		"fight_details": next.FightDetails,
		"messages":      next.Messages,
		"version":       next.Version,
		"updated_at":    next.UpdatedAt,
	}
	unset := bson.M{}
	if next.ResponseDetails != nil {
		set["response_details"] = next.ResponseDetails
	}
	if next.FightID != nil {
		set["fight_id"] = *next.FightID
	}
	if next.ActivePair != "" {
		set["active_pair"] = next.ActivePair
	} else {
		unset["active_pair"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": c.ID, "version": c.Version}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrActivePairExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, c.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}

	*c = next
	return nil
}

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	Participant primitive.ObjectID
	Role        string // RoleAll (default), RoleChallenger, RoleChallenged
	Status      models.ChallengeStatus
	Oldest      bool // oldest first instead of newest first
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	switch f.Role {
	case RoleChallenger:
		q["challenger"] = f.Participant
	case RoleChallenged:
		q["challenged"] = f.Participant
	default:
		q["$or"] = bson.A{
			bson.M{"challenger": f.Participant},
			bson.M{"challenged": f.Participant},
		}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns one page of the participant's challenges plus the total
// number of matches.
func (s *Store) List(ctx context.Context, f ListFilter, page storeutil.Page) ([]models.Challenge, int64, error) {
	q := f.bson()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	dir := -1
	if f.Oldest {
		dir = 1
	}
	opts := page.FindOptions().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.Challenge{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// PendingFor returns the pending challenges awaiting a response from id,
// newest first.
func (s *Store) PendingFor(ctx context.Context, id primitive.ObjectID) ([]models.Challenge, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"challenged": id, "status": models.StatusPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Challenge{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsForParticipant returns the ids of every challenge id takes part in,
// in _id order.
func (s *Store) IDsForParticipant(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"$or": bson.A{bson.M{"challenger": id}, bson.M{"challenged": id}}},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
