package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cadence/internal/analytics"
	"cadence/internal/auth"
	"cadence/internal/routine"
	"cadence/internal/store"
)

const (
	defaultAnalyticsDays = 7
	maxAnalyticsDays     = 90
)

type AnalyticsHandler struct {
	days   *store.DayStore
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewAnalyticsHandler(ds *store.DayStore, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{days: ds, logger: logger, now: time.Now}
}

// Get computes the completion rollup for the trailing N days. Streaks and
// the heatmap always use their own fixed windows, so the store is queried
// for the widest of the three.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	windowDays := defaultAnalyticsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		if n > maxAnalyticsDays {
			n = maxAnalyticsDays
		}
		windowDays = n
	}

	today := h.now()
	fetchDays := windowDays
	if fetchDays < maxAnalyticsDays {
		fetchDays = maxAnalyticsDays
	}
	fromKey := routine.DateKey(today.AddDate(0, 0, -(fetchDays - 1)))
	toKey := routine.DateKey(today)

	data, err := h.days.Range(auth.UserID(r.Context()), fromKey, toKey)
	if err != nil {
		h.logger.Error("load day range", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	writeJSON(w, http.StatusOK, analytics.ComputeRollup(data, windowDays, today))
}
