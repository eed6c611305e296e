package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey(t *testing.T) {
	ts := time.Date(2025, 11, 19, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "2025-11-19", DayKey(ts))
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"mid November 2025", time.Date(2025, 11, 19, 12, 0, 0, 0, time.Local), "2025-W47"},
		{"Dec 29 rolls into next ISO year", time.Date(2025, 12, 29, 0, 0, 0, 0, time.Local), "2026-W01"},
		{"Dec 31 rolls into next ISO year", time.Date(2025, 12, 31, 23, 0, 0, 0, time.Local), "2026-W01"},
		{"Jan 1 belongs to previous ISO year", time.Date(2027, 1, 1, 0, 0, 0, 0, time.Local), "2026-W53"},
		{"single digit week zero padded", time.Date(2025, 2, 17, 0, 0, 0, 0, time.Local), "2025-W08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekKey(tt.date))
		})
	}
}

func TestMonthKey(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-03", MonthKey(ts))
}

func TestStartOfWeek(t *testing.T) {
	// Wednesday Nov 19 2025 -> Monday Nov 17
	wed := time.Date(2025, 11, 19, 15, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.Local), StartOfWeek(wed))

	// Sunday belongs to the week that started 6 days earlier
	sun := time.Date(2025, 11, 23, 9, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.Local), StartOfWeek(sun))
}

func TestPreviousRange(t *testing.T) {
	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 11, 16, 23, 59, 59, 0, time.Local)

	prevStart, prevEnd := PreviousRange(start, end)

	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, time.Local), prevStart)
	assert.Equal(t, 9, prevEnd.Day())
	assert.Equal(t, DaysBetween(start, end), DaysBetween(prevStart, prevEnd))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 11, 10, 23, 0, 0, 0, time.Local)
	b := time.Date(2025, 11, 12, 1, 0, 0, 0, time.Local)
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00", FormatSeconds(0))
	assert.Equal(t, "01:05", FormatSeconds(65))
	assert.Equal(t, "60:00", FormatSeconds(3600))
	assert.Equal(t, "00:00", FormatSeconds(-5))
}
