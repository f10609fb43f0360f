package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the password every fixture account is stored with.
const FixturePassword = "stratafight-fixture"

var (
	fixtureHashOnce sync.Once
	fixtureHash     string
)

// passwordHash hashes FixturePassword once at the minimum bcrypt cost so
// fixtures stay cheap to create.
func passwordHash(t *testing.T) string {
	t.Helper()
	fixtureHashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		if err == nil {
			fixtureHash = string(b)
		}
	})
	if fixtureHash == "" {
		t.Fatal("failed to hash fixture password")
	}
	return fixtureHash
}

// CreateFan inserts a fan account with the given username. The document is
// written directly so store packages can use fixtures in their own tests.
func CreateFan(t *testing.T, db *mongo.Database, username string) models.Account {
	t.Helper()
	return insertAccount(t, db, username, models.RoleFan)
}

// CreateFighter inserts a fighter account with an empty fighter profile.
func CreateFighter(t *testing.T, db *mongo.Database, username string) models.Account {
	t.Helper()
	return insertAccount(t, db, username, models.RoleFighter)
}

func insertAccount(t *testing.T, db *mongo.Database, username string, role models.Role) models.Account {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := models.Account{
		ID:               primitive.NewObjectID(),
		Username:         username,
		Email:            username + "@test.com",
		PasswordHash:     passwordHash(t),
		Role:             role,
		FighterFlag:      role == models.RoleFighter,
		DisplayName:      username,
		Challenges:       []primitive.ObjectID{},
		FavoriteFighters: []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if role == models.RoleFighter {
		a.Fighter = &models.FighterProfile{FightingStyles: []string{}}
	}
	if _, err := db.Collection("users").InsertOne(ctx, a); err != nil {
		t.Fatalf("create %s %s: %v", role, username, err)
	}
	return a
}
