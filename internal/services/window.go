package services

import "time"

// Window is a half-open [Start, End) time range used by the analytics
// aggregations.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CurrentMonth returns the calendar month containing now.
func CurrentMonth(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthsAgo returns the calendar month n months before the one containing now.
// MonthsAgo(now, 0) equals CurrentMonth(now).
func MonthsAgo(now time.Time, n int) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -n, 0)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// CurrentYear returns the calendar year containing now.
func CurrentYear(now time.Time) Window {
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// LastNDays returns the n-day window ending at now.
func LastNDays(now time.Time, n int) Window {
	return Window{Start: now.AddDate(0, 0, -n), End: now}
}

// periodWindow resolves the current reporting window for a budget period.
func periodWindow(period string, now time.Time) Window {
	if period == "yearly" {
		return CurrentYear(now)
	}
	return CurrentMonth(now)
}
