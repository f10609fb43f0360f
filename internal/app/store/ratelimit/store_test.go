package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/stratafight/internal/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T, max int) (*Store, *clock) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := New(db, max, 15*time.Minute, 30*time.Minute)
	c := &clock{t: time.Now().UTC().Truncate(time.Millisecond)}
	s.now = c.now
	return s, c
}

func TestStore_CheckAllowed_NoRecord(t *testing.T) {
	store, _ := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := store.CheckAllowed(ctx, "newcomer")
	if !d.Allowed || d.Remaining != 5 || d.LockedUntil != nil {
		t.Errorf("CheckAllowed() = %+v, want allowed with 5 remaining", d)
	}
}

func TestStore_KeysAreCaseSensitive(t *testing.T) {
	store, _ := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.RecordFailure(ctx, " rocky "); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	if d := store.CheckAllowed(ctx, "rocky"); d.Remaining != 4 {
		t.Errorf("trimmed key remaining = %d, want 4", d.Remaining)
	}
	if d := store.CheckAllowed(ctx, "Rocky"); d.Remaining != 5 {
		t.Errorf("different case remaining = %d, want 5", d.Remaining)
	}
}

func TestStore_RecordFailure_IncreasesCount(t *testing.T) {
	store, _ := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		until, err := store.RecordFailure(ctx, "slugger")
		if err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
		if until != nil {
			t.Fatalf("failure %d should not lock", i+1)
		}
	}

	d := store.CheckAllowed(ctx, "slugger")
	if !d.Allowed || d.Remaining != 2 {
		t.Errorf("CheckAllowed() = %+v, want allowed with 2 remaining", d)
	}

	a, err := store.Get(ctx, "slugger")
	if err != nil || a == nil {
		t.Fatalf("Get() = %v, %v", a, err)
	}
	if a.AttemptCount != 3 {
		t.Errorf("AttemptCount = %d, want 3", a.AttemptCount)
	}
}

func TestStore_LockoutAndExpiry(t *testing.T) {
	store, clk := newStore(t, 3)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "lockme")
	store.RecordFailure(ctx, "lockme")
	until, err := store.RecordFailure(ctx, "lockme")
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if until == nil {
		t.Fatal("third failure should lock")
	}
	if want := clk.t.Add(30 * time.Minute); !until.Equal(want) {
		t.Errorf("lockedUntil = %v, want %v", until, want)
	}

	d := store.CheckAllowed(ctx, "lockme")
	if d.Allowed || d.Remaining != -1 || d.LockedUntil == nil {
		t.Errorf("CheckAllowed() while locked = %+v", d)
	}

	clk.advance(31 * time.Minute)
	if d := store.CheckAllowed(ctx, "lockme"); !d.Allowed || d.Remaining != 3 {
		t.Errorf("CheckAllowed() after lockout = %+v, want full allowance", d)
	}

	// Counting restarts after the lockout has been served.
	if until, _ := store.RecordFailure(ctx, "lockme"); until != nil {
		t.Error("first failure after lockout should not lock again")
	}
	if d := store.CheckAllowed(ctx, "lockme"); d.Remaining != 2 {
		t.Errorf("remaining after restart = %d, want 2", d.Remaining)
	}
}

func TestStore_WindowExpiryResetsCount(t *testing.T) {
	store, clk := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "patient")
	store.RecordFailure(ctx, "patient")

	clk.advance(16 * time.Minute)
	if d := store.CheckAllowed(ctx, "patient"); d.Remaining != 5 {
		t.Errorf("remaining after window = %d, want 5", d.Remaining)
	}

	store.RecordFailure(ctx, "patient")
	a, _ := store.Get(ctx, "patient")
	if a == nil || a.AttemptCount != 1 {
		t.Errorf("attempt after window = %+v, want count 1", a)
	}
}

func TestStore_Clear(t *testing.T) {
	store, _ := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.RecordFailure(ctx, "winner")
	if err := store.Clear(ctx, "winner"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	a, err := store.Get(ctx, "winner")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a != nil {
		t.Errorf("Get() after Clear = %+v, want nil", a)
	}

	// Clearing a missing key is not an error.
	if err := store.Clear(ctx, "ghost"); err != nil {
		t.Errorf("Clear(missing) error = %v", err)
	}
}
