// Package analytics computes read-only rollups over a user's day records:
// completion percentages, category breakdowns, streaks, and heatmap tiers.
package analytics

import (
	"math"
	"time"

	"cadence/internal/model"
	"cadence/internal/routine"
)

const (
	// Streaks always scan this fixed trailing window, regardless of the
	// requested rollup range.
	streakWindow = 90
	// Heatmap cells cover this fixed trailing window.
	heatmapWindow = 30
	// A day counts toward a streak when its rounded completion percentage
	// reaches this threshold and it has at least one task.
	streakThreshold = 80
)

// DayStat is one day's completion summary.
type DayStat struct {
	Date  string `json:"date"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Pct   int    `json:"pct"`
}

// HeatCell is one heatmap day. Tier 0 means no data; tiers 1-5 cover
// rounded percentages ≤20, ≤40, ≤60, ≤80, and >80.
type HeatCell struct {
	Date string `json:"date"`
	Pct  int    `json:"pct"`
	Tier int    `json:"tier"`
}

// Report aggregates completion analytics over a trailing window.
type Report struct {
	DailyStats    []DayStat      `json:"dailyStats"`
	TotalDone     int            `json:"totalDone"`
	TotalTasks    int            `json:"totalTasks"`
	AvgPct        int            `json:"avgPct"`
	CurrentStreak int            `json:"currentStreak"`
	BestStreak    int            `json:"bestStreak"`
	CategoryDone  map[string]int `json:"categoryDone"`
	CategoryTotal map[string]int `json:"categoryTotal"`
	Heatmap       []HeatCell     `json:"heatmap"`
}

// Pct returns done/total as a percentage rounded half-up, 0 when total is 0.
// The same rounding applies at the streak threshold: 79.6 rounds to 80 and
// counts.
func Pct(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// ComputeRollup builds a Report over the trailing windowDays ending today
// (inclusive). Days absent from data are zero-task days: they contribute
// nothing to totals, are excluded from the average, and break streaks.
func ComputeRollup(data map[string][]model.Routine, windowDays int, today time.Time) Report {
	rep := Report{
		CategoryDone:  make(map[string]int),
		CategoryTotal: make(map[string]int),
	}
	for _, c := range model.Categories {
		rep.CategoryDone[c] = 0
		rep.CategoryTotal[c] = 0
	}

	var pctSum, daysWithData int
	for _, key := range dateRange(today, windowDays) {
		day := data[key]
		done := 0
		for _, r := range day {
			if r.Completed {
				done++
			}
			if model.ValidCategory(r.Category) {
				rep.CategoryTotal[r.Category]++
				if r.Completed {
					rep.CategoryDone[r.Category]++
				}
			}
		}
		total := len(day)
		pct := Pct(done, total)
		rep.DailyStats = append(rep.DailyStats, DayStat{Date: key, Done: done, Total: total, Pct: pct})
		rep.TotalDone += done
		rep.TotalTasks += total
		if total > 0 {
			pctSum += pct
			daysWithData++
		}
	}
	if daysWithData > 0 {
		rep.AvgPct = int(math.Round(float64(pctSum) / float64(daysWithData)))
	}

	rep.CurrentStreak, rep.BestStreak = Streaks(data, today)
	rep.Heatmap = HeatmapCells(data, today)
	return rep
}

// Streaks walks a fixed trailing 90-day window from the most recent day
// backward. Consecutive qualifying days form a run; the current streak is
// the run that includes today (0 if today does not qualify), and the best
// streak is the longest run anywhere in the window.
func Streaks(data map[string][]model.Routine, today time.Time) (current, best int) {
	keys := dateRange(today, streakWindow)

	run := 0
	atHead := true
	for i := len(keys) - 1; i >= 0; i-- {
		day := data[keys[i]]
		done := 0
		for _, r := range day {
			if r.Completed {
				done++
			}
		}
		if len(day) > 0 && Pct(done, len(day)) >= streakThreshold {
			run++
			if run > best {
				best = run
			}
			continue
		}
		if atHead {
			current = run
			atHead = false
		}
		run = 0
	}
	if atHead {
		// The whole window qualified.
		current = run
	}
	return current, best
}

// HeatmapCells buckets the trailing 30 days into six intensity tiers.
func HeatmapCells(data map[string][]model.Routine, today time.Time) []HeatCell {
	keys := dateRange(today, heatmapWindow)
	cells := make([]HeatCell, 0, len(keys))
	for _, key := range keys {
		day := data[key]
		done := 0
		for _, r := range day {
			if r.Completed {
				done++
			}
		}
		pct := Pct(done, len(day))
		cells = append(cells, HeatCell{Date: key, Pct: pct, Tier: tier(len(day), pct)})
	}
	return cells
}

func tier(total, pct int) int {
	switch {
	case total == 0:
		return 0
	case pct <= 20:
		return 1
	case pct <= 40:
		return 2
	case pct <= 60:
		return 3
	case pct <= 80:
		return 4
	default:
		return 5
	}
}

// dateRange returns the date keys for the trailing n days ending today
// (inclusive), oldest first.
func dateRange(today time.Time, n int) []string {
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, routine.DateKey(today.AddDate(0, 0, -i)))
	}
	return keys
}
