package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"cadence/internal/analytics"
	"cadence/internal/database"
	"cadence/internal/model"
	"cadence/internal/routine"
	"cadence/internal/store"
)

func setupAnalyticsHandlerTest(t *testing.T, now time.Time) (*http.ServeMux, *store.DayStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create("anauser", "ana@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := store.NewDayStore(db)
	h := NewAnalyticsHandler(ds, logger)
	h.now = func() time.Time { return now }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/analytics", h.Get)
	return mux, ds, u.ID
}

func TestAnalyticsGet(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	mux, ds, userID := setupAnalyticsHandlerTest(t, now)

	day := []model.Routine{
		{ID: "a", Category: "health", Completed: true},
		{ID: "b", Category: "work"},
	}
	if err := ds.Put(userID, routine.DateKey(now), day); err != nil {
		t.Fatalf("put day: %v", err)
	}

	rec := doRequest(t, mux, userID, "GET", "/api/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var rep analytics.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.DailyStats) != 7 {
		t.Fatalf("expected default 7-day window, got %d", len(rep.DailyStats))
	}
	if rep.TotalDone != 1 || rep.TotalTasks != 2 {
		t.Errorf("totals = %d/%d, want 1/2", rep.TotalDone, rep.TotalTasks)
	}
	if len(rep.Heatmap) != 30 {
		t.Errorf("heatmap cells = %d, want 30", len(rep.Heatmap))
	}
}

func TestAnalyticsDaysParam(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	mux, _, userID := setupAnalyticsHandlerTest(t, now)

	rec := doRequest(t, mux, userID, "GET", "/api/analytics?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var rep analytics.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.DailyStats) != 30 {
		t.Errorf("expected 30 daily stats, got %d", len(rep.DailyStats))
	}

	// Values above the cap clamp rather than fail.
	rec = doRequest(t, mux, userID, "GET", "/api/analytics?days=400", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rep = analytics.Report{}
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.DailyStats) != 90 {
		t.Errorf("expected clamp to 90 daily stats, got %d", len(rep.DailyStats))
	}

	for _, bad := range []string{"0", "-3", "abc"} {
		rec := doRequest(t, mux, userID, "GET", "/api/analytics?days="+bad, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("days=%s: status = %d, want %d", bad, rec.Code, http.StatusBadRequest)
		}
	}
}
