package model

import "time"

// Template is an ordered collection of routine definitions without per-date
// completion state. The shared default template has a nil UserID; user-saved
// templates are scoped to their owner.
type Template struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"-"`
	Name      string    `json:"name"`
	Routines  []Routine `json:"routines"`
	CreatedAt time.Time `json:"createdAt"`
}
