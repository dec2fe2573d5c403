package store

import (
	"testing"

	"cadence/internal/database"
)

func setupNotifiedTestDB(t *testing.T) (*NotifiedStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("notuser", "not@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewNotifiedStore(db), u.ID
}

func TestNotifiedRecordOnce(t *testing.T) {
	ns, userID := setupNotifiedTestDB(t)

	was, err := ns.WasNotified(userID, "2026-09-01", "run_2026-09-01")
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if was {
		t.Error("expected no marker yet")
	}

	if err := ns.Record(userID, "2026-09-01", "run_2026-09-01"); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Recording the same marker twice must not error.
	if err := ns.Record(userID, "2026-09-01", "run_2026-09-01"); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	was, err = ns.WasNotified(userID, "2026-09-01", "run_2026-09-01")
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if !was {
		t.Error("expected marker after record")
	}

	// Same task on a different day is a fresh marker.
	was, err = ns.WasNotified(userID, "2026-09-02", "run_2026-09-01")
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if was {
		t.Error("marker must be per-day")
	}
}

func TestNotifiedDeleteBefore(t *testing.T) {
	ns, userID := setupNotifiedTestDB(t)

	for _, key := range []string{"2026-08-01", "2026-08-20", "2026-09-01"} {
		if err := ns.Record(userID, key, "r"); err != nil {
			t.Fatalf("record %s: %v", key, err)
		}
	}

	if err := ns.DeleteBefore("2026-08-25"); err != nil {
		t.Fatalf("delete before: %v", err)
	}

	for key, want := range map[string]bool{
		"2026-08-01": false,
		"2026-08-20": false,
		"2026-09-01": true,
	} {
		was, err := ns.WasNotified(userID, key, "r")
		if err != nil {
			t.Fatalf("was notified %s: %v", key, err)
		}
		if was != want {
			t.Errorf("marker for %s = %v, want %v", key, was, want)
		}
	}
}
