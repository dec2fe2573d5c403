package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cadence/internal/auth"
	"cadence/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, logger: logger}
}

type notificationSettings struct {
	Enabled bool `json:"enabled"`
}

func (h *SettingsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.settings.NotificationsEnabled(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load notification setting", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, notificationSettings{Enabled: enabled})
}

func (h *SettingsHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.settings.SetNotificationsEnabled(auth.UserID(r.Context()), req.Enabled); err != nil {
		h.logger.Error("save notification setting", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
