package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"cadence/internal/auth"
	"cadence/internal/routine"
	"cadence/internal/store"
)

type TemplateHandler struct {
	templates *store.TemplateStore
	days      *store.DayStore
	logger    *slog.Logger
}

func NewTemplateHandler(ts *store.TemplateStore, ds *store.DayStore, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: ts, days: ds, logger: logger}
}

// GetDefault returns the built-in starter template.
func (h *TemplateHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	entries, err := h.templates.Default()
	if err != nil {
		h.logger.Error("load default template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load default template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": "default", "routines": entries})
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.templates.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, tpls)
}

type createTemplateRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// Create saves the named date's routines as a reusable template. Instance
// id suffixes and completion state are stripped so the template stays
// date-neutral.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, ok := routine.ParseDateKey(req.Date); !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	userID := auth.UserID(r.Context())
	day, _, err := h.days.Get(userID, req.Date)
	if err != nil {
		h.logger.Error("load day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}
	if len(day) == 0 {
		writeError(w, http.StatusBadRequest, "day has no routines to save")
		return
	}

	tpl, err := h.templates.Create(userID, req.Name, routine.TemplateEntries(day, req.Date))
	if err != nil {
		h.logger.Error("create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

type applyTemplateRequest struct {
	Date string `json:"date"`
}

// Apply materializes a saved template onto a date, replacing whatever the
// day currently holds.
func (h *TemplateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req applyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, ok := routine.ParseDateKey(req.Date); !ok {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	userID := auth.UserID(r.Context())
	tpl, err := h.templates.GetByID(id, userID)
	if err != nil {
		h.logger.Error("load template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	if tpl == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	day := routine.Materialize(tpl.Routines, req.Date)
	if err := h.days.Put(userID, req.Date, day); err != nil {
		h.logger.Error("save day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save day")
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: req.Date, Routines: day})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := h.templates.Delete(id, auth.UserID(r.Context())); err != nil {
		h.logger.Error("delete template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
