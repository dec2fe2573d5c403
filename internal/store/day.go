package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cadence/internal/model"
)

// DayStore persists one JSON document of routine instances per user per
// date key. Mutations always rewrite the whole document.
type DayStore struct {
	db *sql.DB
}

func NewDayStore(db *sql.DB) *DayStore {
	return &DayStore{db: db}
}

// Get returns the day record for (userID, dateKey). exists is false when no
// record has been materialized for the date. A stored document that fails to
// parse is treated as absent rather than surfaced as an error, so the day is
// re-materialized on the next visit.
func (s *DayStore) Get(userID int64, dateKey string) (routines []model.Routine, exists bool, err error) {
	var doc string
	err = s.db.QueryRow(
		`SELECT routines FROM day_records WHERE user_id = ? AND date_key = ?`,
		userID, dateKey,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get day record: %w", err)
	}

	if err := json.Unmarshal([]byte(doc), &routines); err != nil {
		return nil, false, nil
	}
	return routines, true, nil
}

// Put stores the full day record, replacing any previous document.
func (s *DayStore) Put(userID int64, dateKey string, routines []model.Routine) error {
	if routines == nil {
		routines = []model.Routine{}
	}
	doc, err := json.Marshal(routines)
	if err != nil {
		return fmt.Errorf("marshal day record: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO day_records (user_id, date_key, routines, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date_key) DO UPDATE SET routines = excluded.routines, updated_at = excluded.updated_at`,
		userID, dateKey, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put day record: %w", err)
	}
	return nil
}

// Range loads all day records for the user with fromKey <= date_key <= toKey
// into a map. Canonical date keys compare correctly as strings. Documents
// that fail to parse are skipped.
func (s *DayStore) Range(userID int64, fromKey, toKey string) (map[string][]model.Routine, error) {
	rows, err := s.db.Query(
		`SELECT date_key, routines FROM day_records WHERE user_id = ? AND date_key >= ? AND date_key <= ?`,
		userID, fromKey, toKey,
	)
	if err != nil {
		return nil, fmt.Errorf("range day records: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Routine)
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("scan day record: %w", err)
		}
		var routines []model.Routine
		if err := json.Unmarshal([]byte(doc), &routines); err != nil {
			continue
		}
		out[key] = routines
	}
	return out, rows.Err()
}
