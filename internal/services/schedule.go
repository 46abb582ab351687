package services

import (
	"fmt"
	"time"

	"github.com/404Simon/splitify/internal/core"
)

// NextOccurrence advances a schedule date by one period. Monthly and
// yearly steps clamp the day to the target month's length, so Jan 31
// rolls to Feb 28 (29 in leap years) rather than spilling into March.
// Advancement always starts from the current date; a clamped day stays
// clamped on subsequent steps.
func NextOccurrence(current core.Date, frequency core.Frequency) (core.Date, error) {
	switch frequency {
	case core.Daily:
		return core.DateOf(current.AddDate(0, 0, 1)), nil
	case core.Weekly:
		return core.DateOf(current.AddDate(0, 0, 7)), nil
	case core.Monthly:
		year, month, day := current.Date()
		month++
		if month > time.December {
			month = time.January
			year++
		}
		return core.NewDate(year, int(month), clampDay(day, year, month)), nil
	case core.Yearly:
		year, month, day := current.Date()
		year++
		return core.NewDate(year, int(month), clampDay(day, year, month)), nil
	default:
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, frequency)
	}
}

// clampDay bounds a day of month to the length of the given month.
func clampDay(day int, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
