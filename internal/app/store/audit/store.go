// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth      = "auth"
	CategoryChallenge = "challenge"
)

// Auth event types
const (
	EventSignup                  = "signup"
	EventSigninSuccess           = "signin_success"
	EventSigninFailedUnknownUser = "signin_failed_unknown_user"
	EventSigninFailedPassword    = "signin_failed_wrong_password"
	EventSigninRateLimited       = "signin_rate_limited"
	EventSigninLockedOut         = "signin_locked_out"
	EventBecameFighter           = "became_fighter"
)

// Challenge event types
const (
	EventChallengeCreated   = "challenge_created"
	EventChallengeAccepted  = "challenge_accepted"
	EventChallengeDeclined  = "challenge_declined"
	EventChallengeCancelled = "challenge_cancelled"
	EventChallengeCompleted = "challenge_completed"
	EventChallengeUpdated   = "challenge_details_updated"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	AccountID   *primitive.ObjectID `bson:"account_id,omitempty"`   // acting or affected account
	ChallengeID *primitive.ObjectID `bson:"challenge_id,omitempty"` // challenge events only

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query and Count. Zero values are ignored.
type QueryFilter struct {
	AccountID   *primitive.ObjectID
	ChallengeID *primitive.ObjectID
	Category    string
	EventType   string
	Since       *time.Time
	Limit       int64
	Offset      int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.AccountID != nil {
		q["account_id"] = *f.AccountID
	}
	if f.ChallengeID != nil {
		q["challenge_id"] = *f.ChallengeID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}

// Store manages audit event records. Indexes are created by indexes.EnsureAll.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_logs")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns events matching filter, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// ForChallenge returns the audit trail of one challenge.
func (s *Store) ForChallenge(ctx context.Context, challengeID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{ChallengeID: &challengeID, Limit: limit})
}

// ForAccount returns recent events for one account.
func (s *Store) ForAccount(ctx context.Context, accountID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{AccountID: &accountID, Limit: limit})
}
