package model

// Routine categories form a closed set; anything else is rejected on input
// and ignored by analytics.
const (
	CategoryWork     = "work"
	CategoryHealth   = "health"
	CategoryPersonal = "personal"
	CategoryMeals    = "meals"
	CategoryLeisure  = "leisure"
)

// Categories lists all valid categories in display order.
var Categories = []string{
	CategoryWork,
	CategoryHealth,
	CategoryPersonal,
	CategoryMeals,
	CategoryLeisure,
}

// ValidCategory reports whether c is a member of the category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Recurrence modes. Only meaningful on template entries; materialized
// instances carry a copy for display but are never re-expanded from it.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// ValidRecurrence reports whether r is a known recurrence mode.
// The empty string is accepted and treated as "none".
func ValidRecurrence(r string) bool {
	switch r {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Routine is one scheduled task occurrence on one date, or a template entry
// when it lives inside a Template. The JSON field names are the stored
// document format, so a day's document round-trips byte-for-byte.
type Routine struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Time          string `json:"time"`     // 24-hour "HH:MM", sole display sort key
	Duration      int    `json:"duration"` // minutes, positive
	Category      string `json:"category"`
	Notes         string `json:"notes,omitempty"`
	Completed     bool   `json:"completed"`
	Recurrence    string `json:"recurrence,omitempty"`
	RecurringDays []int  `json:"recurringDays,omitempty"` // 0=Sunday..6=Saturday, weekly only
	MonthlyDay    int    `json:"monthlyDay,omitempty"`    // day of month, monthly only
}
