// Package testutil provides database setup, fixtures and HTTP helpers for
// package tests.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratafight/internal/app/system/indexes"
	"github.com/dalemusser/stratafight/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv overrides the default test server.
const MongoURIEnv = "STRATAFIGHT_TEST_MONGO_URI"

const defaultMongoURI = "mongodb://localhost:27017"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

func testURI() string {
	if uri := strings.TrimSpace(os.Getenv(MongoURIEnv)); uri != "" {
		return uri
	}
	return defaultMongoURI
}

// sharedClient connects once per test binary.
func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(testURI()).
			SetMaxPoolSize(100).
			SetMaxConnIdleTime(30 * time.Second).
			SetServerSelectionTimeout(5 * time.Second)

		client, clientErr = mongo.Connect(ctx, opts)
		if clientErr == nil {
			clientErr = client.Ping(ctx, nil)
		}
	})
	return client, clientErr
}

// SetupTestDB returns an empty database with the production validators and
// indexes applied. Each test gets its own database, dropped on cleanup. The
// test is skipped when no MongoDB server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Skipf("MongoDB not reachable at %s (set %s): %v", testURI(), MongoURIEnv, err)
	}

	db := c.Database(databaseName(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop test database: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("ensure validators: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database on cleanup: %v", err)
		}
	})
	return db
}

// databaseName keeps within MongoDB's 63-byte limit. The readable part is
// truncated; the hash of the working directory (the package under test) and
// the full test name keeps names unique.
func databaseName(testName string) string {
	dir, _ := os.Getwd()
	h := fnv.New64a()
	_, _ = h.Write([]byte(dir))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(testName))

	readable := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, testName)
	const maxReadable = 30 // "sf_" + 30 + "_" + 16 hex = 50
	if len(readable) > maxReadable {
		readable = readable[:maxReadable]
	}
	return fmt.Sprintf("sf_%s_%016x", readable, h.Sum64())
}

// TestContext returns a context with a timeout suited to test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
