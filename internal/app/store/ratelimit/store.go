// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt tracks failed signin attempts for one key (a username).
type Attempt struct {
	Key          string     `bson:"key"`           // exact username, trimmed
	AttemptCount int        `bson:"attempt_count"` // failures in the current window
	WindowStart  time.Time  `bson:"window_start"`
	LockedUntil  *time.Time `bson:"locked_until,omitempty"`
	LastAttempt  time.Time  `bson:"last_attempt"` // TTL cleanup
	UpdatedAt    time.Time  `bson:"updated_at"`
}

// Decision is the outcome of CheckAllowed.
type Decision struct {
	Allowed     bool
	Remaining   int        // attempts left before lockout; -1 while locked
	LockedUntil *time.Time // set while locked
}

// Store manages rate limit tracking for signin attempts.
// Indexes on the rate_limits collection are created by indexes.EnsureAll.
type Store struct {
	c           *mongo.Collection
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

// New creates a rate limit Store. maxAttempts failures within window lock
// the key for lockout.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:           db.Collection("rate_limits"),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

// Usernames are case-sensitive, so keys are only trimmed.
func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}

func (s *Store) load(ctx context.Context, key string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckAllowed reports whether another signin attempt may be processed for key.
// Lookup errors fail open.
func (s *Store) CheckAllowed(ctx context.Context, key string) Decision {
	full := Decision{Allowed: true, Remaining: s.maxAttempts}

	a, err := s.load(ctx, normalizeKey(key))
	if err != nil || a == nil {
		return full
	}

	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Decision{Allowed: false, Remaining: -1, LockedUntil: a.LockedUntil}
	}
	if a.LockedUntil != nil || now.After(a.WindowStart.Add(s.window)) {
		// lockout served or window elapsed
		return full
	}

	remaining := s.maxAttempts - a.AttemptCount
	if remaining <= 0 {
		return Decision{Allowed: false, Remaining: 0}
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// RecordFailure counts a failed attempt for key and locks it once the
// threshold is reached. Returns the lockout expiry when this failure
// triggered one.
func (s *Store) RecordFailure(ctx context.Context, key string) (*time.Time, error) {
	key = normalizeKey(key)
	now := s.now()

	a, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	fresh := a == nil ||
		now.After(a.WindowStart.Add(s.window)) ||
		(a.LockedUntil != nil && !now.Before(*a.LockedUntil))

	var update bson.M
	if fresh {
		update = bson.M{
			"$set": bson.M{
				"attempt_count": 1,
				"window_start":  now,
				"last_attempt":  now,
				"updated_at":    now,
			},
			"$unset": bson.M{"locked_until": ""},
		}
	} else {
		update = bson.M{
			"$inc": bson.M{"attempt_count": 1},
			"$set": bson.M{"last_attempt": now, "updated_at": now},
		}
	}

	var after Attempt
	err = s.c.FindOneAndUpdate(ctx, bson.M{"key": key}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&after)
	if err != nil {
		return nil, err
	}

	if after.AttemptCount < s.maxAttempts {
		return nil, nil
	}
	until := now.Add(s.lockout)
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"locked_until": until}},
	); err != nil {
		return nil, err
	}
	return &until, nil
}

// Clear removes the record for key. Called after a successful signin.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalizeKey(key)})
	return err
}

// Get returns the current record for key, or nil when there is none.
func (s *Store) Get(ctx context.Context, key string) (*Attempt, error) {
	return s.load(ctx, normalizeKey(key))
}
