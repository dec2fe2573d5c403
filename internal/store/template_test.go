package store

import (
	"testing"

	"cadence/internal/database"
	"cadence/internal/model"
)

func setupTemplateTestDB(t *testing.T) (*TemplateStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("tpluser", "tpl@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewTemplateStore(db), u.ID
}

func TestDefaultTemplateSeed(t *testing.T) {
	ts, _ := setupTemplateTestDB(t)

	entries, err := ts.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if len(entries) != 11 {
		t.Fatalf("expected 11 seed entries, got %d", len(entries))
	}
	if entries[0].Title != "Morning Meditation" || entries[0].Time != "06:00" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	for _, e := range entries {
		if e.Completed {
			t.Errorf("seed entry %q must not carry completion", e.ID)
		}
	}
}

func TestTemplateCRUD(t *testing.T) {
	ts, userID := setupTemplateTestDB(t)

	routines := []model.Routine{
		{ID: "run", Title: "Run", Time: "06:00", Duration: 30, Category: "health", Recurrence: "weekly", RecurringDays: []int{1, 3, 5}},
	}

	tpl, err := ts.Create(userID, "weekday", routines)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tpl.Name != "weekday" {
		t.Errorf("name = %q, want %q", tpl.Name, "weekday")
	}

	got, err := ts.GetByID(tpl.ID, userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected template")
	}
	if len(got.Routines) != 1 || got.Routines[0].ID != "run" {
		t.Errorf("routines did not round-trip: %+v", got.Routines)
	}

	list, err := ts.ListByUser(userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 template, got %d", len(list))
	}

	if err := ts.Delete(tpl.ID, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = ts.GetByID(tpl.ID, userID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted template")
	}
}

func TestTemplateUserScoping(t *testing.T) {
	ts, userID := setupTemplateTestDB(t)

	tpl, err := ts.Create(userID, "mine", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := ts.GetByID(tpl.ID, userID+1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("template must not be visible to another user")
	}

	// The shared default never shows up in a user's own list.
	list, err := ts.ListByUser(userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected only the user's template, got %d", len(list))
	}
}
