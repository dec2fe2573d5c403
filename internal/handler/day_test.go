package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cadence/internal/auth"
	"cadence/internal/database"
	"cadence/internal/model"
	"cadence/internal/store"
	"cadence/internal/websocket"
)

func setupDayHandlerTest(t *testing.T) (*http.ServeMux, *store.DayStore, *store.TemplateStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create("dayyy", "day@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := store.NewDayStore(db)
	ts := store.NewTemplateStore(db)
	h := NewDayHandler(ds, ts, websocket.NewHub(logger), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/days/{date}", h.Get)
	mux.HandleFunc("POST /api/days/{date}/routines", h.Create)
	mux.HandleFunc("PUT /api/days/{date}/routines/{id}", h.Update)
	mux.HandleFunc("POST /api/days/{date}/routines/{id}/toggle", h.Toggle)
	mux.HandleFunc("DELETE /api/days/{date}/routines/{id}", h.Delete)
	return mux, ds, ts, u.ID
}

func doRequest(t *testing.T, mux *http.ServeMux, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: userID, Username: "dayyy"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func decodeDay(t *testing.T, rec *httptest.ResponseRecorder) dayResponse {
	t.Helper()
	var resp dayResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode day response: %v", err)
	}
	return resp
}

func TestDayGetMaterializesDefault(t *testing.T) {
	mux, ds, _, userID := setupDayHandlerTest(t)

	rec := doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	resp := decodeDay(t, rec)
	if len(resp.Routines) != 11 {
		t.Fatalf("expected 11 default routines, got %d", len(resp.Routines))
	}
	if resp.Routines[0].ID != "1_2026-09-01" {
		t.Errorf("first id = %q, want date-suffixed instance id", resp.Routines[0].ID)
	}
	for i := 1; i < len(resp.Routines); i++ {
		if resp.Routines[i].Time < resp.Routines[i-1].Time {
			t.Fatal("routines must be sorted by time")
		}
	}

	// The first visit persists the materialized day.
	_, exists, err := ds.Get(userID, "2026-09-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !exists {
		t.Error("day must be persisted after first load")
	}
}

func TestDayGetInvalidDate(t *testing.T) {
	mux, _, _, userID := setupDayHandlerTest(t)

	for _, key := range []string{"2026-9-1", "not-a-date", "2026-02-30"} {
		rec := doRequest(t, mux, userID, "GET", "/api/days/"+key, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", key, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestDayCreateRoutine(t *testing.T) {
	mux, _, _, userID := setupDayHandlerTest(t)

	rec := doRequest(t, mux, userID, "POST", "/api/days/2026-09-01/routines", map[string]any{
		"title": "Errand", "time": "11:00", "duration": 20, "category": "personal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var created model.Routine
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Completed {
		t.Errorf("unexpected created routine: %+v", created)
	}

	rec = doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil)
	resp := decodeDay(t, rec)
	if len(resp.Routines) != 12 {
		t.Fatalf("expected 12 routines after add, got %d", len(resp.Routines))
	}
}

func TestDayCreateRoutineValidation(t *testing.T) {
	mux, _, _, userID := setupDayHandlerTest(t)

	tests := []map[string]any{
		{"title": "", "time": "11:00", "duration": 20, "category": "personal"},
		{"title": "X", "time": "25:00", "duration": 20, "category": "personal"},
		{"title": "X", "time": "11:00", "duration": 0, "category": "personal"},
		{"title": "X", "time": "11:00", "duration": 20, "category": "sleep"},
	}
	for i, body := range tests {
		rec := doRequest(t, mux, userID, "POST", "/api/days/2026-09-01/routines", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want %d", i, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestDayToggleRoutine(t *testing.T) {
	mux, ds, _, userID := setupDayHandlerTest(t)

	// Materialize first.
	doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil)

	rec := doRequest(t, mux, userID, "POST", "/api/days/2026-09-01/routines/1_2026-09-01/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	day, _, err := ds.Get(userID, "2026-09-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var toggled bool
	for _, r := range day {
		if r.ID == "1_2026-09-01" {
			toggled = r.Completed
		}
	}
	if !toggled {
		t.Error("toggle must persist completion")
	}

	// Toggling an unknown id succeeds without changing anything.
	rec = doRequest(t, mux, userID, "POST", "/api/days/2026-09-01/routines/ghost/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("toggle of unknown id: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestDayUpdateRoutine(t *testing.T) {
	mux, _, _, userID := setupDayHandlerTest(t)

	doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil)
	doRequest(t, mux, userID, "POST", "/api/days/2026-09-01/routines/1_2026-09-01/toggle", nil)

	rec := doRequest(t, mux, userID, "PUT", "/api/days/2026-09-01/routines/1_2026-09-01", map[string]any{
		"title": "Long Meditation", "time": "05:45", "duration": 30, "category": "personal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	resp := decodeDay(t, rec)
	var got *model.Routine
	for i := range resp.Routines {
		if resp.Routines[i].ID == "1_2026-09-01" {
			got = &resp.Routines[i]
		}
	}
	if got == nil {
		t.Fatal("edited routine missing from response")
	}
	if got.Title != "Long Meditation" || got.Duration != 30 {
		t.Errorf("fields not updated: %+v", got)
	}
	if !got.Completed {
		t.Error("completion state must survive an edit")
	}

	rec = doRequest(t, mux, userID, "PUT", "/api/days/2026-09-01/routines/ghost", map[string]any{
		"title": "X", "time": "05:45", "duration": 30, "category": "personal",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update of unknown id: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDayDeleteRoutine(t *testing.T) {
	mux, _, _, userID := setupDayHandlerTest(t)

	doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil)

	rec := doRequest(t, mux, userID, "DELETE", "/api/days/2026-09-01/routines/1_2026-09-01", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	resp := decodeDay(t, doRequest(t, mux, userID, "GET", "/api/days/2026-09-01", nil))
	if len(resp.Routines) != 10 {
		t.Fatalf("expected 10 routines after delete, got %d", len(resp.Routines))
	}

	// A second delete of the same id is a no-op.
	rec = doRequest(t, mux, userID, "DELETE", "/api/days/2026-09-01/routines/1_2026-09-01", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeat delete: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestDayExpandsRecurringFromSavedTemplates(t *testing.T) {
	mux, _, ts, userID := setupDayHandlerTest(t)

	// 2026-09-02 is a Wednesday (weekday 3).
	_, err := ts.Create(userID, "habits", []model.Routine{
		{ID: "run", Title: "Run", Time: "06:15", Duration: 30, Category: "health", Recurrence: "weekly", RecurringDays: []int{3}},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	resp := decodeDay(t, doRequest(t, mux, userID, "GET", "/api/days/2026-09-02", nil))
	var found bool
	for _, r := range resp.Routines {
		if r.ID == "run_2026-09-02" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected recurring instance on a matching weekday")
	}

	// A non-matching weekday gets no instance. 2026-09-03 is a Thursday.
	resp = decodeDay(t, doRequest(t, mux, userID, "GET", "/api/days/2026-09-03", nil))
	for _, r := range resp.Routines {
		if r.ID == "run_2026-09-03" {
			t.Fatal("recurring instance must not appear on a non-matching day")
		}
	}
}
