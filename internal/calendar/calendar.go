// Package calendar answers the day-count questions the wire shapes depend on.
package calendar

import "time"

// ValidMonth reports whether month is in 1..12.
func ValidMonth(month uint8) bool {
	return month >= 1 && month <= 12
}

// DaysIn returns the number of days in (year, month) of the proleptic
// Gregorian calendar, or 0 for an invalid month.
func DaysIn(year uint16, month uint8) int {
	if !ValidMonth(month) {
		return 0
	}
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(int(year), time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDay reports whether day exists in (year, month).
func ValidDay(year uint16, month, day uint8) bool {
	return day >= 1 && int(day) <= DaysIn(year, month)
}

// IsLeap reports whether year has a 29 February.
func IsLeap(year uint16) bool {
	return DaysIn(year, 2) == 29
}
