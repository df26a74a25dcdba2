// Package recurrence turns sparse maintenance recurrence rules into calendar dates.
// All functions are pure; a missing schedule yields no date rather than an error.
package recurrence

import (
	"sort"
	"time"

	"github.com/verdant-ops/gardenledger/internal/domain"
)

const (
	// DefaultWeekday is used when a plan has no preferred weekday
	DefaultWeekday = time.Monday
	// DefaultWeekOfMonth is used when a plan has no preferred week of month
	DefaultWeekOfMonth = 1
)

// PreferredDateInMonth returns the first day of the month falling on weekday, advanced by
// (weekOfMonth-1) weeks. The result is not clamped to the month: the fifth Friday of a month
// with four Fridays lands in the following month.
func PreferredDateInMonth(year int, month time.Month, weekday *time.Weekday, weekOfMonth *int) domain.Date {
	wd := DefaultWeekday
	if weekday != nil {
		wd = *weekday
	}
	week := DefaultWeekOfMonth
	if weekOfMonth != nil && *weekOfMonth > 0 {
		week = *weekOfMonth
	}

	first := domain.NewDate(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + (week-1)*7)
}

// NextDueMonth returns the smallest listed month at or after current. When no listed month
// qualifies it wraps to the smallest listed month and reports wrapped=true, meaning the month
// belongs to the following year. ok is false for an empty list.
func NextDueMonth(months []int, current time.Month) (month time.Month, wrapped bool, ok bool) {
	valid := normalizeMonths(months)
	if len(valid) == 0 {
		return 0, false, false
	}
	for _, m := range valid {
		if m >= int(current) {
			return time.Month(m), false, true
		}
	}
	return time.Month(valid[0]), true, true
}

// NextDueDate resolves the due month for the schedule and then the preferred day within it
func NextDueDate(months []int, year int, current time.Month, weekday *time.Weekday, weekOfMonth *int) (domain.Date, bool) {
	month, wrapped, ok := NextDueMonth(months, current)
	if !ok {
		return domain.Date{}, false
	}
	if wrapped {
		year++
	}
	return PreferredDateInMonth(year, month, weekday, weekOfMonth), true
}

// normalizeMonths returns the distinct months in 1..12, sorted ascending
func normalizeMonths(months []int) []int {
	seen := make(map[int]struct{}, len(months))
	out := make([]int, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
