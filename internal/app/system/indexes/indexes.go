// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionSet is the desired index set for one collection.
type collectionSet struct {
	name   string
	models []mongo.IndexModel
}

func desired() []collectionSet {
	return []collectionSet{
		{"users", usersIndexes()},
		{"challenges", challengesIndexes()},
		{"audit_logs", auditLogIndexes()},
		{"rate_limits", rateLimitIndexes()},
		{"api_stats", apiStatsIndexes()},
	}
}

// EnsureAll reconciles every collection's index set at startup. It is
// idempotent. Problems are collected across collections so one run reports
// all of them. logger may be nil.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error
	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.name), set.models, logger); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", set.name, err))
		}
	}
	return errors.Join(errs...)
}

// existingIndex is the subset of listIndexes output we compare on.
type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             bool   `bson:"unique,omitempty"`
	Sparse             bool   `bson:"sparse,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ",")
}

// spec is a desired index flattened for comparison.
type spec struct {
	name   string
	sig    string
	unique bool
	sparse bool
	ttl    *int32
}

func specOf(m mongo.IndexModel) spec {
	sp := spec{sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			sp.name = *o.Name
		}
		sp.unique = o.Unique != nil && *o.Unique
		sp.sparse = o.Sparse != nil && *o.Sparse
		sp.ttl = o.ExpireAfterSeconds
	}
	return sp
}

func (sp spec) matches(ex existingIndex) bool {
	if sp.unique != ex.Unique || sp.sparse != ex.Sparse {
		return false
	}
	switch {
	case sp.ttl == nil && ex.ExpireAfterSeconds == nil:
		return true
	case sp.ttl == nil || ex.ExpireAfterSeconds == nil:
		return false
	default:
		return *sp.ttl == *ex.ExpireAfterSeconds
	}
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			return nil, err
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet creates missing indexes and rebuilds any whose options
// drifted (unique, sparse or TTL) under the same key pattern.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []error
	for _, m := range models {
		sp := specOf(m)
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", sp.name),
			zap.String("keys", sp.sig),
		)

		if ex, ok := existing[sp.sig]; ok {
			if sp.matches(ex) {
				log.Debug("index up to date", zap.String("existing_name", ex.Name))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Errorf("%s: drop drifted index %s: %w", sp.name, ex.Name, err))
				continue
			}
			log.Info("dropped index with drifted options", zap.String("existing_name", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if sp.unique && mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Errorf("%s: cannot create unique index, duplicates present", sp.name))
			} else {
				errs = append(errs, fmt.Errorf("%s: %w", sp.name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured",
			zap.Bool("unique", sp.unique),
			zap.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Usernames and emails are unique, matched exactly
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Fighter directory: is_fighter + weight/height exact filters
		{
			Keys: bson.D{
				{Key: "is_fighter", Value: 1},
				{Key: "fighter.weight", Value: 1},
				{Key: "fighter.height", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_fighter_weight_height_id"),
		},

		// Fighter directory: style any-of filter
		{
			Keys: bson.D{
				{Key: "is_fighter", Value: 1},
				{Key: "fighter.fighting_styles", Value: 1},
			},
			Options: options.Index().SetName("idx_users_fighter_styles"),
		},

		// Fighter directory: folded location search path
		{
			Keys: bson.D{
				{Key: "is_fighter", Value: 1},
				{Key: "fighter.location_ci.country", Value: 1},
				{Key: "fighter.location_ci.state", Value: 1},
				{Key: "fighter.location_ci.city", Value: 1},
			},
			Options: options.Index().SetName("idx_users_fighter_location_ci"),
		},
	}
}

func challengesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// At most one active challenge per pair of fighters. active_pair is
		// only present while the challenge is pending or accepted.
		{
			Keys:    bson.D{{Key: "active_pair", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_challenges_active_pair"),
		},

		// "My challenges" as challenger, filtered by status, newest first
		{
			Keys: bson.D{
				{Key: "challenger", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_challenges_challenger_status_created"),
		},

		// "My challenges" as challenged, and the pending inbox
		{
			Keys: bson.D{
				{Key: "challenged", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_challenges_challenged_status_created"),
		},
	}
}

func auditLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Time-based queries (most common)
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_created"),
		},
		// Category + time queries
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_created"),
		},
		// Account-specific audit trail
		{
			Keys: bson.D{
				{Key: "account_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_account_created"),
		},
		// Challenge history
		{
			Keys: bson.D{
				{Key: "challenge_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetSparse(true).SetName("idx_audit_challenge_created"),
		},
	}
}

func rateLimitIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Unique key (username) for fast lookups
		{
			Keys: bson.D{
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_ratelimit_key"),
		},
		// TTL index on last_attempt - automatically clean up old records after 24 hours
		{
			Keys: bson.D{
				{Key: "last_attempt", Value: 1},
			},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_ratelimit_ttl"),
		},
	}
}

func apiStatsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// One bucket per group, window and start time; Record upserts on it
		{
			Keys: bson.D{
				{Key: "group", Value: 1},
				{Key: "bucket_duration", Value: 1},
				{Key: "bucket", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_apistats_group_duration_bucket"),
		},
		{
			Keys:    bson.D{{Key: "bucket", Value: 1}},
			Options: options.Index().SetName("idx_apistats_bucket"),
		},
	}
}
