package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"cadence/internal/model"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func decodeTemplate(scanner interface{ Scan(...any) error }) (*model.Template, error) {
	var t model.Template
	var userID sql.NullInt64
	var doc string
	if err := scanner.Scan(&t.ID, &userID, &t.Name, &doc, &t.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = &userID.Int64
	}
	// A corrupt routines document degrades to an empty template.
	if err := json.Unmarshal([]byte(doc), &t.Routines); err != nil {
		t.Routines = []model.Routine{}
	}
	return &t, nil
}

const templateCols = `id, user_id, name, routines, created_at`

// Default returns the shared default template's entries. A missing or
// corrupt row yields an empty slice, never an error to the caller's caller.
func (s *TemplateStore) Default() ([]model.Routine, error) {
	row := s.db.QueryRow(`SELECT ` + templateCols + ` FROM templates WHERE user_id IS NULL AND name = 'default'`)
	t, err := decodeTemplate(row)
	if err == sql.ErrNoRows {
		return []model.Routine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get default template: %w", err)
	}
	return t.Routines, nil
}

func (s *TemplateStore) Create(userID int64, name string, routines []model.Routine) (*model.Template, error) {
	if routines == nil {
		routines = []model.Routine{}
	}
	doc, err := json.Marshal(routines)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO templates (user_id, name, routines) VALUES (?, ?, ?)`,
		userID, name, string(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

func (s *TemplateStore) GetByID(id, userID int64) (*model.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM templates WHERE id = ? AND user_id = ?`, id, userID)
	t, err := decodeTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) ListByUser(userID int64) ([]model.Template, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM templates WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		t, err := decodeTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM templates WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
