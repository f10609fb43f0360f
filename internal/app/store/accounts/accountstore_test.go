package accountstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"github.com/dalemusser/stratafight/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func createAccount(t *testing.T, s *Store, username string) models.Account {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := s.Create(ctx, models.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$12$placeholderhashplaceholderhashplaceholderhashpla",
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", username, err)
	}
	return a
}

func createFighter(t *testing.T, s *Store, username string, upd FighterUpdate) models.Account {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, s, username)
	if _, err := s.PromoteToFighter(ctx, a.ID); err != nil {
		t.Fatalf("PromoteToFighter(%s) error = %v", username, err)
	}
	got, err := s.UpdateFighterProfile(ctx, a.ID, upd)
	if err != nil {
		t.Fatalf("UpdateFighterProfile(%s) error = %v", username, err)
	}
	return *got
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	created := createAccount(t, store, "iron_mike")

	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if created.Role != models.RoleFan {
		t.Errorf("Create() Role = %q, want fan", created.Role)
	}
	if created.IsFighter() || created.FighterFlag {
		t.Error("new account should not be a fighter")
	}
	if created.Challenges == nil || created.FavoriteFighters == nil {
		t.Error("Create() should initialise back-reference sets")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Account{Username: "bad_role", Email: "b@example.com", PasswordHash: "x", Role: "referee"})
	if err == nil {
		t.Error("Create() with invalid role should return error")
	}
}

func TestStore_Create_Duplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	createAccount(t, store, "rocky")

	_, err := store.Create(ctx, models.Account{Username: "rocky", Email: "other@example.com", PasswordHash: "x"})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateUsername", err)
	}

	_, err = store.Create(ctx, models.Account{Username: "rocky2", Email: "rocky@example.com", PasswordHash: "x"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEmail", err)
	}

	// Exact match only: a different case is a different username
	if _, err := store.Create(ctx, models.Account{Username: "Rocky", Email: "Rocky@example.com", PasswordHash: "x"}); err != nil {
		t.Errorf("Create() with different case should succeed, got %v", err)
	}
}

func TestStore_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := createAccount(t, store, "ali")

	got, err := store.GetByUsername(ctx, "ali")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByUsername() ID = %v, want %v", got.ID, created.ID)
	}

	if _, err := store.GetByUsername(ctx, "ALI"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUsername(ALI) error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_TakenAndExistsForOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, store, "frazier")
	b := createAccount(t, store, "foreman")

	u, e, err := store.Taken(ctx, "frazier", "nobody@example.com")
	if err != nil {
		t.Fatalf("Taken() error = %v", err)
	}
	if !u || e {
		t.Errorf("Taken() = (%v, %v), want (true, false)", u, e)
	}

	exists, err := store.UsernameExistsForOther(ctx, "frazier", a.ID)
	if err != nil || exists {
		t.Errorf("UsernameExistsForOther(own) = %v, %v; want false", exists, err)
	}
	exists, err = store.UsernameExistsForOther(ctx, "frazier", b.ID)
	if err != nil || !exists {
		t.Errorf("UsernameExistsForOther(other) = %v, %v; want true", exists, err)
	}
	exists, err = store.EmailExistsForOther(ctx, "foreman@example.com", a.ID)
	if err != nil || !exists {
		t.Errorf("EmailExistsForOther(other) = %v, %v; want true", exists, err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, store, "tyson")
	createAccount(t, store, "holyfield")

	got, err := store.UpdateProfile(ctx, a.ID, ProfileUpdate{DisplayName: ptr("  Iron Mike "), Bio: ptr("Baddest man on the planet")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.DisplayName != "Iron Mike" {
		t.Errorf("DisplayName = %q, want Iron Mike", got.DisplayName)
	}
	if got.Username != "tyson" {
		t.Errorf("Username changed unexpectedly to %q", got.Username)
	}

	_, err = store.UpdateProfile(ctx, a.ID, ProfileUpdate{Username: ptr("holyfield")})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("UpdateProfile(dup username) error = %v, want ErrDuplicateUsername", err)
	}
}

func TestStore_PromoteToFighter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, store, "ngannou")

	got, err := store.PromoteToFighter(ctx, a.ID)
	if err != nil {
		t.Fatalf("PromoteToFighter() error = %v", err)
	}
	if !got.IsFighter() || !got.FighterFlag {
		t.Error("PromoteToFighter() should set role and is_fighter together")
	}
	if got.Fighter == nil {
		t.Fatal("PromoteToFighter() should seed a fighter profile")
	}

	// One-way and conditional on still being a fan
	if _, err := store.PromoteToFighter(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second PromoteToFighter() error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateFighterProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fan := createAccount(t, store, "watcher")
	if _, err := store.UpdateFighterProfile(ctx, fan.ID, FighterUpdate{Age: ptr(30)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateFighterProfile(fan) error = %v, want ErrNotFound", err)
	}

	f := createFighter(t, store, "adesanya", FighterUpdate{
		Age:            ptr(34),
		Weight:         ptr(84.0),
		Wins:           ptr(24),
		FightingStyles: []string{models.StyleKickboxing, models.StyleOther},
		OtherStyle:     ptr("Capoeira"),
		City:           ptr("Auckland"),
		Country:        ptr("New Zealand"),
	})
	if f.Fighter.Age != 34 || f.Fighter.Weight != 84 || f.Fighter.Record.Wins != 24 {
		t.Errorf("fighter profile = %+v", f.Fighter)
	}
	if f.Fighter.LocationCI.City == "" {
		t.Error("folded location should be stored")
	}

	// Partial merge: other fields survive, other_style can be cleared
	got, err := store.UpdateFighterProfile(ctx, f.ID, FighterUpdate{
		Losses:         ptr(3),
		FightingStyles: []string{models.StyleKickboxing},
		OtherStyle:     ptr(""),
	})
	if err != nil {
		t.Fatalf("UpdateFighterProfile() error = %v", err)
	}
	if got.Fighter.Record.Wins != 24 || got.Fighter.Record.Losses != 3 {
		t.Errorf("record = %+v, want wins 24 losses 3", got.Fighter.Record)
	}
	if got.Fighter.OtherStyle != "" {
		t.Errorf("OtherStyle = %q, want cleared", got.Fighter.OtherStyle)
	}
	if got.Fighter.Location.City != "Auckland" {
		t.Errorf("City = %q, want Auckland", got.Fighter.Location.City)
	}
}

func TestStore_ChallengeRefs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, store, "ali")
	b := createAccount(t, store, "frazier")
	cid := primitive.NewObjectID()

	// Idempotent
	for i := 0; i < 2; i++ {
		if err := store.AddChallengeRef(ctx, cid, a.ID, b.ID); err != nil {
			t.Fatalf("AddChallengeRef() error = %v", err)
		}
	}
	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		got, _ := store.GetByID(ctx, id)
		if len(got.Challenges) != 1 || got.Challenges[0] != cid {
			t.Errorf("challenges = %v, want [%v]", got.Challenges, cid)
		}
	}

	other := primitive.NewObjectID()
	snapshot := []primitive.ObjectID{cid}
	changed, err := store.SyncChallengeRefs(ctx, a.ID, snapshot, []primitive.ObjectID{other, cid})
	if err != nil || !changed {
		t.Fatalf("SyncChallengeRefs() = %v, %v; want changed", changed, err)
	}
	snapshot = []primitive.ObjectID{cid, other}
	changed, err = store.SyncChallengeRefs(ctx, a.ID, snapshot, []primitive.ObjectID{other, cid})
	if err != nil || changed {
		t.Errorf("SyncChallengeRefs(same set) = %v, %v; want unchanged", changed, err)
	}

	var seen int
	if err := store.ForEachID(ctx, func(primitive.ObjectID) error { seen++; return nil }); err != nil {
		t.Fatalf("ForEachID() error = %v", err)
	}
	if seen != 2 {
		t.Errorf("ForEachID() visited %d, want 2", seen)
	}
}

func TestStore_Favorites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fan := createAccount(t, store, "fan1")
	fighter := createFighter(t, store, "champ", FighterUpdate{})

	got, err := store.AddFavorite(ctx, fan.ID, fighter.ID)
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	got, _ = store.AddFavorite(ctx, fan.ID, fighter.ID)
	if len(got.FavoriteFighters) != 1 {
		t.Errorf("favorites = %v, want one entry", got.FavoriteFighters)
	}

	got, err = store.RemoveFavorite(ctx, fan.ID, fighter.ID)
	if err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if len(got.FavoriteFighters) != 0 {
		t.Errorf("favorites = %v, want empty", got.FavoriteFighters)
	}
}

func TestStore_FindFighters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	createAccount(t, store, "just_a_fan")
	createFighter(t, store, "pereira", FighterUpdate{
		Weight: ptr(93.0), FightingStyles: []string{models.StyleKickboxing}, City: ptr("São Paulo"), Country: ptr("Brazil"),
	})
	createFighter(t, store, "oliveira", FighterUpdate{
		Weight: ptr(70.0), FightingStyles: []string{models.StyleBJJ}, City: ptr("Guarujá"), Country: ptr("Brazil"),
	})
	createFighter(t, store, "makhachev", FighterUpdate{
		Weight: ptr(70.0), FightingStyles: []string{models.StyleSambo, models.StyleWrestling}, City: ptr("Makhachkala"), Country: ptr("Russia"),
	})

	page := storeutil.NewPage(1, 10, 0, 0)

	tests := []struct {
		name   string
		filter FighterFilter
		want   int64
	}{
		{"all fighters", FighterFilter{}, 3},
		{"exact weight", FighterFilter{Weight: ptr(70.0)}, 2},
		{"styles any-of", FighterFilter{Styles: []string{models.StyleBJJ, models.StyleSambo}}, 2},
		{"country case-insensitive", FighterFilter{Country: "brazil"}, 2},
		{"city partial and diacritic-insensitive", FighterFilter{City: "sao"}, 1},
		{"regex metacharacters are literal", FighterFilter{City: ".*"}, 0},
		{"combined", FighterFilter{Weight: ptr(70.0), Country: "BRA"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.FindFighters(ctx, tt.filter, page)
			if err != nil {
				t.Fatalf("FindFighters() error = %v", err)
			}
			if total != tt.want || int64(len(got)) != tt.want {
				t.Errorf("FindFighters() total = %d, len = %d, want %d", total, len(got), tt.want)
			}
		})
	}

	// Pagination
	got, total, err := store.FindFighters(ctx, FighterFilter{}, storeutil.NewPage(2, 2, 0, 0))
	if err != nil {
		t.Fatalf("FindFighters(page 2) error = %v", err)
	}
	if total != 3 || len(got) != 1 {
		t.Errorf("page 2: total = %d, len = %d, want 3 and 1", total, len(got))
	}
}

func TestSyncChallengeRefs_KeepsConcurrentRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createAccount(t, store, "sync_refs")
	kept, stale := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.AddChallengeRef(ctx, kept, a.ID); err != nil {
		t.Fatalf("AddChallengeRef() error = %v", err)
	}
	if err := store.AddChallengeRef(ctx, stale, a.ID); err != nil {
		t.Fatalf("AddChallengeRef() error = %v", err)
	}
	snapshot := []primitive.ObjectID{kept, stale}

	// A challenge created after the snapshot and after its refs were read.
	fresh := primitive.NewObjectID()
	if err := store.AddChallengeRef(ctx, fresh, a.ID); err != nil {
		t.Fatalf("AddChallengeRef() error = %v", err)
	}

	changed, err := store.SyncChallengeRefs(ctx, a.ID, snapshot, []primitive.ObjectID{kept})
	if err != nil || !changed {
		t.Fatalf("SyncChallengeRefs() = %v, %v; want changed", changed, err)
	}
	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := map[primitive.ObjectID]bool{kept: true, fresh: true}
	if len(got.Challenges) != len(want) {
		t.Fatalf("challenges = %v, want %v and %v", got.Challenges, kept, fresh)
	}
	for _, id := range got.Challenges {
		if !want[id] {
			t.Errorf("unexpected ref %v in %v", id, got.Challenges)
		}
	}
}

func TestDiffRefs(t *testing.T) {
	x, y, z := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	ids := func(v ...primitive.ObjectID) []primitive.ObjectID { return v }
	tests := []struct {
		name        string
		snapshot    []primitive.ObjectID
		refs        []primitive.ObjectID
		wantMissing int
		wantStale   int
	}{
		{"equal", ids(x, y), ids(y, x), 0, 0},
		{"empty", nil, nil, 0, 0},
		{"add only", ids(x), ids(x, y), 1, 0},
		{"pull only", ids(x, y), ids(x), 0, 1},
		{"both", ids(x, y), ids(y, z), 1, 1},
		{"duplicates", ids(x, x), ids(y, y), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, stale := diffRefs(tt.snapshot, tt.refs)
			if len(missing) != tt.wantMissing || len(stale) != tt.wantStale {
				t.Errorf("diffRefs() = %v, %v; want %d missing, %d stale", missing, stale, tt.wantMissing, tt.wantStale)
			}
		})
	}
}
