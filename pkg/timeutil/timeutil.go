// Package timeutil provides local-time helpers and gamification period keys
// for ActiveBreak. All bucketing (daily stats, leaderboard periods) happens
// in the user's local timezone, so the same helpers are used everywhere to
// keep keys consistent.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORMAT CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// FormatDate is the canonical date format used for daily period keys.
	FormatDate = "2006-01-02"

	// FormatMonth is the canonical format for monthly period keys.
	FormatMonth = "2006-01"

	// FormatDateTime is used in human-facing event listings.
	FormatDateTime = "2006-01-02 15:04:05"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD KEYS
// ══════════════════════════════════════════════════════════════════════════════

// DayKey returns the daily period key (YYYY-MM-DD) for t in its own location.
func DayKey(t time.Time) string {
	return t.Format(FormatDate)
}

// WeekKey returns the ISO-8601 week key (YYYY-Www) for t.
// The ISO year can differ from the calendar year around January 1st:
// Dec 29-31 may belong to week 1 of the next ISO year, and Jan 1-3 may
// belong to the last week of the previous one.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the monthly period key (YYYY-MM) for t.
func MonthKey(t time.Time) string {
	return t.Format(FormatMonth)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANGE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// StartOfDay returns the start of the day (00:00:00) containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00) containing t.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(t).AddDate(0, 0, -(weekday - 1))
}

// PreviousRange returns the period of equal length immediately preceding
// [start, end]: it ends the day before start and spans the same number of
// calendar days. Used for trend comparison in statistics.
func PreviousRange(start, end time.Time) (time.Time, time.Time) {
	days := DaysBetween(start, end)
	prevEnd := EndOfDay(start.AddDate(0, 0, -1))
	prevStart := StartOfDay(prevEnd.AddDate(0, 0, -days))
	return prevStart, prevEnd
}

// DaysBetween returns the number of whole calendar days from a to b
// (0 when both are on the same day).
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPLAY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// FormatSeconds renders a duration in whole seconds as mm:ss, the format
// the stats screens use for posture time totals.
func FormatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
