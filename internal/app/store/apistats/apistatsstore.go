// Package apistats stores per-route-group request statistics in fixed time
// buckets.
package apistats

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection for API statistics.
const CollectionName = "api_stats"

// Group identifies the API surface a request belongs to.
type Group string

const (
	GroupAuth       Group = "auth"
	GroupUsers      Group = "users"
	GroupFighters   Group = "fighters"
	GroupChallenges Group = "challenges"
)

// Bucket is one group's aggregate over one time window.
type Bucket struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Bucket         time.Time          `bson:"bucket"`
	BucketDuration string             `bson:"bucket_duration"`
	Group          Group              `bson:"group"`
	Requests       int64              `bson:"requests"`
	ClientErrors   int64              `bson:"client_errors"` // 4xx
	ServerErrors   int64              `bson:"server_errors"` // 5xx
	TotalMs        int64              `bson:"total_ms"`
	MinMs          int64              `bson:"min_ms"`
	MaxMs          int64              `bson:"max_ms"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// Sample is a single finished request.
type Sample struct {
	Group      Group
	Status     int
	DurationMs int64
	At         time.Time
}

// Store provides API statistics persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new API stats store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Record adds s to the bucket of size window that contains s.At, creating
// the bucket on first use.
func (s *Store) Record(ctx context.Context, window time.Duration, sm Sample) error {
	at := sm.At.UTC()
	bucket := at.Truncate(window)
	inc := bson.M{"requests": 1, "total_ms": sm.DurationMs}
	switch {
	case sm.Status >= 500:
		inc["server_errors"] = 1
	case sm.Status >= 400:
		inc["client_errors"] = 1
	}

	// $min/$max also initialise min_ms and max_ms on insert.
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": at},
		"$min": bson.M{"min_ms": sm.DurationMs},
		"$max": bson.M{"max_ms": sm.DurationMs},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{
		"bucket":          bucket,
		"group":           sm.Group,
		"bucket_duration": window.String(),
	}, update, options.Update().SetUpsert(true))
	return err
}

// Range returns one group's buckets with start in [from, to), oldest first.
func (s *Store) Range(ctx context.Context, group Group, from, to time.Time) ([]Bucket, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"group":  group,
		"bucket": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}, options.Find().SetSort(bson.D{{Key: "bucket", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Bucket
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary totals one group over a period.
type Summary struct {
	Group        Group   `json:"group"`
	Requests     int64   `json:"requests"`
	ClientErrors int64   `json:"client_errors"`
	ServerErrors int64   `json:"server_errors"`
	AvgMs        float64 `json:"avg_ms"`
	MaxMs        int64   `json:"max_ms"`
}

// Summarize totals every group's buckets starting at or after since,
// sorted by group name.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bucket": bson.M{"$gte": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$group",
			"requests":      bson.M{"$sum": "$requests"},
			"client_errors": bson.M{"$sum": "$client_errors"},
			"server_errors": bson.M{"$sum": "$server_errors"},
			"total_ms":      bson.M{"$sum": "$total_ms"},
			"max_ms":        bson.M{"$max": "$max_ms"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc struct {
			ID           string `bson:"_id"`
			Requests     int64  `bson:"requests"`
			ClientErrors int64  `bson:"client_errors"`
			ServerErrors int64  `bson:"server_errors"`
			TotalMs      int64  `bson:"total_ms"`
			MaxMs        int64  `bson:"max_ms"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		sum := Summary{
			Group:        Group(doc.ID),
			Requests:     doc.Requests,
			ClientErrors: doc.ClientErrors,
			ServerErrors: doc.ServerErrors,
			MaxMs:        doc.MaxMs,
		}
		if doc.Requests > 0 {
			sum.AvgMs = float64(doc.TotalMs) / float64(doc.Requests)
		}
		out = append(out, sum)
	}
	return out, cur.Err()
}

// DeleteOlderThan removes buckets that start before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"bucket": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
