// Package routine implements the date-keyed materialization and mutation
// logic for day records: expanding templates into per-date task instances,
// testing recurrence rules, and editing a day's collection in place.
package routine

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"cadence/internal/model"
)

const dateKeyLayout = "2006-01-02"

// DateKey returns the canonical zero-padded YYYY-MM-DD key for t in its
// own location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a canonical date key in local time. Non-canonical
// forms (wrong separators, missing zero padding) are rejected.
func ParseDateKey(key string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateKeyLayout, key, time.Local)
	if err != nil || t.Format(dateKeyLayout) != key {
		return time.Time{}, false
	}
	return t, true
}

// ParseClock parses a strict 24-hour "HH:MM" string.
func ParseClock(s string) (hour, minute int, ok bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, false
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// NewID generates an id for an ad-hoc routine instance.
func NewID() string {
	return uuid.NewString()
}

// Materialize clones template entries into instances for the given date key.
// Each instance gets the id "<entry-id>_<date-key>" and completed forced to
// false. The input is never modified.
func Materialize(entries []model.Routine, dateKey string) []model.Routine {
	out := make([]model.Routine, 0, len(entries))
	for _, e := range entries {
		inst := e
		inst.ID = e.ID + "_" + dateKey
		inst.Completed = false
		if len(e.RecurringDays) > 0 {
			inst.RecurringDays = append([]int(nil), e.RecurringDays...)
		}
		out = append(out, inst)
	}
	return out
}

// Matches reports whether a template entry's recurrence rule selects the
// given date. Entries without a rule never match through this path.
func Matches(entry model.Routine, date time.Time) bool {
	switch entry.Recurrence {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		// Absent recurringDays means every day of the week.
		if len(entry.RecurringDays) == 0 {
			return true
		}
		wd := int(date.Weekday())
		for _, d := range entry.RecurringDays {
			if d == wd {
				return true
			}
		}
		return false
	case model.RecurrenceMonthly:
		return entry.MonthlyDay == date.Day()
	}
	return false
}

// ExpandRecurring tests every recurring entry of the given templates against
// date and returns materialized instances for the matches that are not
// already present in existing (by id). Results are recomputed on every load
// rather than cached, so rule changes on a saved template take effect for all
// dates that have not pinned the instance through a mutation.
func ExpandRecurring(templates []model.Template, date time.Time, existing []model.Routine) []model.Routine {
	dateKey := DateKey(date)
	present := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		present[r.ID] = struct{}{}
	}

	var out []model.Routine
	for _, tpl := range templates {
		for _, entry := range tpl.Routines {
			if !Matches(entry, date) {
				continue
			}
			inst := Materialize([]model.Routine{entry}, dateKey)[0]
			if _, ok := present[inst.ID]; ok {
				continue
			}
			present[inst.ID] = struct{}{}
			out = append(out, inst)
		}
	}
	return out
}

// SortByTime orders routines by their HH:MM field for display. The 24-hour
// zero-padded form makes plain string comparison correct.
func SortByTime(routines []model.Routine) {
	sort.SliceStable(routines, func(i, j int) bool {
		return routines[i].Time < routines[j].Time
	})
}

// Add appends r to the day with a freshly generated id and completed reset.
func Add(day []model.Routine, r model.Routine) []model.Routine {
	r.ID = NewID()
	r.Completed = false
	return append(day, r)
}

// Edit replaces the mutable fields of the instance with the given id.
// Completion state and id are preserved. Returns false if no instance
// matched.
func Edit(day []model.Routine, id string, upd model.Routine) ([]model.Routine, bool) {
	for i := range day {
		if day[i].ID != id {
			continue
		}
		day[i].Title = upd.Title
		day[i].Time = upd.Time
		day[i].Duration = upd.Duration
		day[i].Category = upd.Category
		day[i].Notes = upd.Notes
		return day, true
	}
	return day, false
}

// Toggle flips the completed flag of the instance with the given id.
// A missing id is a no-op, not an error.
func Toggle(day []model.Routine, id string) ([]model.Routine, bool) {
	for i := range day {
		if day[i].ID == id {
			day[i].Completed = !day[i].Completed
			return day, true
		}
	}
	return day, false
}

// Delete removes the instance with the given id. A missing id is a no-op.
func Delete(day []model.Routine, id string) ([]model.Routine, bool) {
	for i := range day {
		if day[i].ID == id {
			return append(day[:i:i], day[i+1:]...), true
		}
	}
	return day, false
}

// TemplateEntries converts a day's instances back into template entries:
// the "_<date-key>" suffix is stripped from ids and completion state is
// dropped. Templates never store completion.
func TemplateEntries(day []model.Routine, dateKey string) []model.Routine {
	suffix := "_" + dateKey
	out := make([]model.Routine, 0, len(day))
	for _, r := range day {
		entry := r
		entry.ID = strings.TrimSuffix(r.ID, suffix)
		entry.Completed = false
		if len(r.RecurringDays) > 0 {
			entry.RecurringDays = append([]int(nil), r.RecurringDays...)
		}
		out = append(out, entry)
	}
	return out
}
