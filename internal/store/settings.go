package store

import (
	"database/sql"
	"fmt"
	"time"
)

const keyNotificationsEnabled = "notifications_enabled"

// SettingsStore holds per-user key-value preferences.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(userID int64, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(userID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// NotificationsEnabled reports whether the user has opted into reminders.
// Users are opted out until they explicitly enable the setting.
func (s *SettingsStore) NotificationsEnabled(userID int64) (bool, error) {
	value, ok, err := s.Get(userID, keyNotificationsEnabled)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

func (s *SettingsStore) SetNotificationsEnabled(userID int64, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.Set(userID, keyNotificationsEnabled, value)
}

// UsersWithNotificationsEnabled returns the ids of users who opted into
// reminders; the scheduler only evaluates these.
func (s *SettingsStore) UsersWithNotificationsEnabled() ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM settings WHERE key = ? AND value = 'true'`,
		keyNotificationsEnabled,
	)
	if err != nil {
		return nil, fmt.Errorf("list notification users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
