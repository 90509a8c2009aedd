// Package timeutil provides date arithmetic for BrightSteps Analytics.
// All derived analytics are keyed on UTC calendar dates: scoring periods are
// ISO weeks (Monday start) and child ages are expressed in whole months.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Common date formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatPeriod is the format used for scoring period keys.
	FormatPeriod = "2006-01-02"
)

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00) in UTC.
// This is the canonical period key for Z-profile snapshots.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns the end of the ISO week (Sunday 23:59:59) in UTC.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodKey formats a time as a scoring period key (the week-start date).
func PeriodKey(t time.Time) string {
	return StartOfWeek(t).Format(FormatPeriod)
}

// ParsePeriodKey parses a scoring period key back into a UTC date.
func ParsePeriodKey(key string) (time.Time, error) {
	return time.ParseInLocation(FormatPeriod, key, time.UTC)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween calculates the number of whole days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// ══════════════════════════════════════════════════════════════════════════════
// AGE ARITHMETIC
// ══════════════════════════════════════════════════════════════════════════════

// MonthsBetween returns the number of whole calendar months from `from` to `to`.
// A month only counts once the day-of-month has been reached, so a child born
// on the 20th turns one month old on the 20th of the next month, not the 1st.
func MonthsBetween(from, to time.Time) int {
	a, b := from.UTC(), to.UTC()
	if b.Before(a) {
		return -MonthsBetween(to, from)
	}

	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months
}

// AgeInMonths returns a child's age in whole months at the reference date.
func AgeInMonths(dateOfBirth, at time.Time) int {
	return MonthsBetween(dateOfBirth, at)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in UTC.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) as a UTC date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// FormatMonths renders an age in months as a human-readable string.
func FormatMonths(months int) string {
	years := months / 12
	rem := months % 12
	switch {
	case years == 0:
		return fmt.Sprintf("%dmo", rem)
	case rem == 0:
		return fmt.Sprintf("%dy", years)
	default:
		return fmt.Sprintf("%dy %dmo", years, rem)
	}
}
