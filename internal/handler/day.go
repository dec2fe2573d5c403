package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cadence/internal/auth"
	"cadence/internal/model"
	"cadence/internal/routine"
	"cadence/internal/store"
	"cadence/internal/websocket"
)

type DayHandler struct {
	days      *store.DayStore
	templates *store.TemplateStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewDayHandler(ds *store.DayStore, ts *store.TemplateStore, hub *websocket.Hub, logger *slog.Logger) *DayHandler {
	return &DayHandler{days: ds, templates: ts, hub: hub, logger: logger}
}

func (h *DayHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Send(userID, msg)
	}
}

// load returns the day record for the date, materializing it from the
// default template on first visit. Recurring instances from the user's
// saved templates are recomputed and appended on every load; they are only
// written back when the day is next mutated, so recurrence rule edits keep
// applying to untouched dates.
func (h *DayHandler) load(userID int64, date time.Time) ([]model.Routine, error) {
	dateKey := routine.DateKey(date)

	day, exists, err := h.days.Get(userID, dateKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		entries, err := h.templates.Default()
		if err != nil {
			return nil, err
		}
		day = routine.Materialize(entries, dateKey)
		if err := h.days.Put(userID, dateKey, day); err != nil {
			return nil, err
		}
	}

	saved, err := h.templates.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return append(day, routine.ExpandRecurring(saved, date, day)...), nil
}

func (h *DayHandler) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, ok := routine.ParseDateKey(r.PathValue("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

type dayResponse struct {
	Date     string          `json:"date"`
	Routines []model.Routine `json:"routines"`
}

func (h *DayHandler) respond(w http.ResponseWriter, status int, date time.Time, day []model.Routine) {
	routine.SortByTime(day)
	if day == nil {
		day = []model.Routine{}
	}
	writeJSON(w, status, dayResponse{Date: routine.DateKey(date), Routines: day})
}

// Get returns the day's routines sorted by time, materializing on first
// visit.
func (h *DayHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	day, err := h.load(auth.UserID(r.Context()), date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}
	h.respond(w, http.StatusOK, date, day)
}

type routineRequest struct {
	Title    string `json:"title"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

func (req *routineRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if _, _, ok := routine.ParseClock(req.Time); !ok {
		return "time must be HH:MM"
	}
	if req.Duration <= 0 {
		return "duration must be a positive number of minutes"
	}
	if !model.ValidCategory(req.Category) {
		return "unknown category"
	}
	return ""
}

// Create adds an ad-hoc routine to the day and re-persists the whole record.
func (h *DayHandler) Create(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	var req routineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := auth.UserID(r.Context())
	day, err := h.load(userID, date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}

	day = routine.Add(day, model.Routine{
		Title:    req.Title,
		Time:     req.Time,
		Duration: req.Duration,
		Category: req.Category,
		Notes:    req.Notes,
	})

	if err := h.days.Put(userID, routine.DateKey(date), day); err != nil {
		h.logger.Error("save day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save day")
		return
	}

	created := day[len(day)-1]
	h.broadcast(userID, websocket.NewMessage("routine", "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

// Update replaces the mutable fields of one routine by id; completion state
// is preserved.
func (h *DayHandler) Update(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req routineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := auth.UserID(r.Context())
	day, err := h.load(userID, date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}

	day, found := routine.Edit(day, id, model.Routine{
		Title:    req.Title,
		Time:     req.Time,
		Duration: req.Duration,
		Category: req.Category,
		Notes:    req.Notes,
	})
	if !found {
		writeError(w, http.StatusNotFound, "routine not found")
		return
	}

	if err := h.days.Put(userID, routine.DateKey(date), day); err != nil {
		h.logger.Error("save day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save day")
		return
	}

	h.broadcast(userID, websocket.NewMessage("routine", "updated", id, nil))

	h.respond(w, http.StatusOK, date, day)
}

// Toggle flips a routine's completed flag. Toggling an id that no longer
// exists is a no-op, not an error.
func (h *DayHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	userID := auth.UserID(r.Context())
	day, err := h.load(userID, date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}

	day, found := routine.Toggle(day, id)
	if found {
		if err := h.days.Put(userID, routine.DateKey(date), day); err != nil {
			h.logger.Error("save day", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save day")
			return
		}
		h.broadcast(userID, websocket.NewMessage("routine", "toggled", id, nil))
	}

	h.respond(w, http.StatusOK, date, day)
}

// Delete removes a routine by id. A missing id is a no-op.
func (h *DayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	userID := auth.UserID(r.Context())
	day, err := h.load(userID, date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}

	day, found := routine.Delete(day, id)
	if found {
		if err := h.days.Put(userID, routine.DateKey(date), day); err != nil {
			h.logger.Error("save day", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save day")
			return
		}
		h.broadcast(userID, websocket.NewMessage("routine", "deleted", id, nil))
	}

	w.WriteHeader(http.StatusNoContent)
}
