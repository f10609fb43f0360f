package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratafight/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"code 20", mongo.CommandError{Code: 20, Message: "x"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "x"}, true},
		{"replica set message", errors.New("Transaction numbers are only allowed on a replica set member or mongos"), true},
		{"single keyword", errors.New("session expired"), false},
		{"unrelated", errors.New("an active challenge already exists between these fighters"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("txn_probe")
	err := Run(ctx, db, nil, func(ctx context.Context) error {
		_, err := c.InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	n, _ := c.CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}
}

func TestRun_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sentinel := errors.New("boom")
	err := Run(ctx, db, nil, func(ctx context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Run() error = %v, want sentinel", err)
	}
}
