// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collection pairs a name with its JSON-Schema validator; a nil schema only
// ensures the collection exists.
type collection struct {
	name   string
	schema bson.M
}

func collections() []collection {
	return []collection{
		{"users", usersSchema()},
		{"challenges", challengesSchema()},
		{"audit_logs", nil},
		{"rate_limits", nil},
		{"api_stats", apiStatsSchema()},
	}
}

// Names lists the collections EnsureAll manages.
func Names() []string {
	cs := collections()
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out
}

// EnsureAll creates missing collections and attaches their validators.
// Deployments that reject collMod (some DocumentDB versions) keep the
// collection without a validator. logger may be nil.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var errs []error
	for _, c := range collections() {
		log := logger.With(zap.String("collection", c.name))
		if !have[c.name] {
			if err := db.CreateCollection(ctx, c.name); err != nil && !isNamespaceExists(err) {
				errs = append(errs, fmt.Errorf("%s: create: %w", c.name, err))
				continue
			}
			log.Info("created collection")
		}
		if c.schema == nil {
			continue
		}
		if err := setValidator(ctx, db, c.name, c.schema); err != nil {
			if isUnsupportedCommand(err) {
				log.Info("validator skipped (unsupported)")
				continue
			}
			errs = append(errs, fmt.Errorf("%s: validator: %w", c.name, err))
			continue
		}
		log.Debug("validator ensured")
	}
	return errors.Join(errs...)
}

// setValidator applies the schema with validationLevel moderate, so existing
// documents that predate a schema change are not rejected on unrelated updates.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

// Server error codes.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115 // CommandNotSupported
)

func hasCode(err error, codes ...int) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.HasErrorCode(c) {
			return true
		}
	}
	return false
}

func isNamespaceExists(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, codeNamespaceExists) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "namespace exists")
}

func isUnsupportedCommand(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, codeCommandNotFound, codeNotImplemented) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such command") ||
		strings.Contains(msg, "not implemented") ||
		strings.Contains(msg, "not supported")
}

/* ------------------------------ schemas ------------------------------ */

func usersSchema() bson.M {
	roles := bson.A{}
	for _, r := range models.AllRoles() {
		roles = append(roles, string(r))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "email", "password_hash", "role", "is_fighter"},
			"properties": bson.M{
				"username":      bson.M{"bsonType": "string", "minLength": 3, "maxLength": 30},
				"email":         bson.M{"bsonType": "string", "minLength": 3, "maxLength": 254},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"role":          bson.M{"enum": roles},
				"is_fighter":    bson.M{"bsonType": "bool"},
				"display_name":  bson.M{"bsonType": "string", "maxLength": models.MaxDisplayNameLength},
				"bio":           bson.M{"bsonType": "string", "maxLength": models.MaxBioLength},
				"challenges":    bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "objectId"}},
				"fighter": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"age":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": models.MinFighterAge},
						"weight": bson.M{"bsonType": bson.A{"double", "int", "long"}, "exclusiveMinimum": true, "minimum": 0},
						"height": bson.M{"bsonType": bson.A{"double", "int", "long"}, "exclusiveMinimum": true, "minimum": 0},
						"record": bson.M{
							"bsonType": "object",
							"properties": bson.M{
								"wins":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
								"losses": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
								"draws":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
							},
						},
					},
				},
			},
		},
	}
}

func challengesSchema() bson.M {
	statuses := bson.A{}
	for _, st := range models.AllChallengeStatuses() {
		statuses = append(statuses, string(st))
	}
	weightClasses := bson.A{}
	for _, wc := range models.AllWeightClasses() {
		weightClasses = append(weightClasses, wc)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"challenger", "challenged", "status", "messages", "version", "created_at", "updated_at"},
			"properties": bson.M{
				"challenger": bson.M{"bsonType": "objectId"},
				"challenged": bson.M{"bsonType": "objectId"},
				"status":     bson.M{"enum": statuses},
				"fight_details": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"proposed_date": bson.M{"bsonType": "date"},
						"location":      bson.M{"bsonType": "string", "maxLength": models.MaxLocationLength},
						"rules":         bson.M{"bsonType": "string", "maxLength": models.MaxRulesLength},
						"weight_class":  bson.M{"enum": weightClasses},
						"stakes":        bson.M{"bsonType": "string", "maxLength": models.MaxStakesLength},
					},
				},
				"messages": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"text", "timestamp", "is_system_message"},
						"properties": bson.M{
							"sender":            bson.M{"bsonType": bson.A{"objectId", "null"}},
							"text":              bson.M{"bsonType": "string", "maxLength": models.MaxMessageLength},
							"timestamp":         bson.M{"bsonType": "date"},
							"is_system_message": bson.M{"bsonType": "bool"},
						},
					},
				},
				"response_details": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"responded_at":     bson.M{"bsonType": "date"},
						"response_message": bson.M{"bsonType": "string", "maxLength": models.MaxResponseMessageLength},
					},
				},
				"active_pair": bson.M{"bsonType": "string"},
				"version":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func apiStatsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group", "bucket", "bucket_duration", "requests"},
			"properties": bson.M{
				"group":         bson.M{"bsonType": "string", "minLength": 1},
				"bucket":        bson.M{"bsonType": "date"},
				"requests":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"client_errors": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"server_errors": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}
