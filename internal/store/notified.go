package store

import (
	"database/sql"
	"fmt"
)

// NotifiedStore tracks which routine instances have already triggered a
// reminder on a given day, so repeated scheduler polls deliver each alert
// at most once per task per date.
type NotifiedStore struct {
	db *sql.DB
}

func NewNotifiedStore(db *sql.DB) *NotifiedStore {
	return &NotifiedStore{db: db}
}

func (s *NotifiedStore) WasNotified(userID int64, dateKey, routineID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM notified WHERE user_id = ? AND date_key = ? AND routine_id = ?`,
		userID, dateKey, routineID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check notified: %w", err)
	}
	return true, nil
}

func (s *NotifiedStore) Record(userID int64, dateKey, routineID string) error {
	_, err := s.db.Exec(
		`INSERT INTO notified (user_id, date_key, routine_id) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, date_key, routine_id) DO NOTHING`,
		userID, dateKey, routineID,
	)
	if err != nil {
		return fmt.Errorf("record notified: %w", err)
	}
	return nil
}

// DeleteBefore prunes dedup rows older than the given date key; called from
// the cleanup loop. Canonical date keys compare correctly as strings.
func (s *NotifiedStore) DeleteBefore(dateKey string) error {
	_, err := s.db.Exec(`DELETE FROM notified WHERE date_key < ?`, dateKey)
	if err != nil {
		return fmt.Errorf("prune notified: %w", err)
	}
	return nil
}
