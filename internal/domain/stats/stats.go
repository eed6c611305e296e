// Package stats derives posture statistics from the event log: time spent
// in each state over a range, per-day series for charting, and trend
// comparison against the preceding period.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/activebreak/activebreak/internal/domain/posture"
	"github.com/activebreak/activebreak/internal/domain/session"
	"github.com/activebreak/activebreak/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT WALK
// ══════════════════════════════════════════════════════════════════════════════

// segment is a contiguous stretch of one posture state inside the range.
type segment struct {
	state posture.State
	from  time.Time
	to    time.Time
}

// walk replays the event log over [from, to]. The state entering the range
// is initialState (the latest event before the range, default correct).
// Every event closes the open segment and accrues it to the PRIOR state;
// only correct/incorrect events change the state, session boundary markers
// just advance the cursor. The final segment runs to the end of the range.
func walk(events []session.PostureEvent, from, to time.Time, initialState posture.State) []segment {
	state := initialState
	cursor := from
	segments := make([]segment, 0, len(events)+1)

	for _, ev := range events {
		if ev.Timestamp.Before(from) || ev.Timestamp.After(to) {
			continue
		}
		if ev.Timestamp.After(cursor) {
			segments = append(segments, segment{state: state, from: cursor, to: ev.Timestamp})
			cursor = ev.Timestamp
		}
		if ev.Type.IsPostureState() {
			state = ev.Type.State()
		}
	}

	if to.After(cursor) {
		segments = append(segments, segment{state: state, from: cursor, to: to})
	}

	return segments
}

// Durations returns the seconds spent in each posture state over [from, to].
// The sum of both equals the length of the range (whole seconds are
// truncated per segment boundary arithmetic).
func Durations(events []session.PostureEvent, from, to time.Time, initialState posture.State) (correctSeconds, incorrectSeconds int64) {
	for _, seg := range walk(events, from, to, initialState) {
		secs := int64(seg.to.Sub(seg.from) / time.Second)
		if seg.state == posture.StateIncorrect {
			incorrectSeconds += secs
		} else {
			correctSeconds += secs
		}
	}
	return correctSeconds, incorrectSeconds
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY SERIES
// ══════════════════════════════════════════════════════════════════════════════

// DayBucket is one day of the chart series.
type DayBucket struct {
	// Date is the daily key (YYYY-MM-DD, local time).
	Date string

	CorrectSeconds   int64
	IncorrectSeconds int64
}

// CorrectMinutes returns the correct time in minutes for display.
func (b DayBucket) CorrectMinutes() float64 {
	return float64(b.CorrectSeconds) / 60
}

// IncorrectMinutes returns the incorrect time in minutes for display.
func (b DayBucket) IncorrectMinutes() float64 {
	return float64(b.IncorrectSeconds) / 60
}

// DailySeries buckets the walked segments into local calendar days,
// splitting segments that cross midnight. Days are returned in ascending
// order; days without tracked time are omitted.
func DailySeries(events []session.PostureEvent, from, to time.Time, initialState posture.State) []DayBucket {
	buckets := make(map[string]*DayBucket)

	for _, seg := range walk(events, from, to, initialState) {
		cur := seg.from
		for cur.Before(seg.to) {
			dayEnd := timeutil.StartOfDay(cur).AddDate(0, 0, 1)
			sliceEnd := seg.to
			if dayEnd.Before(sliceEnd) {
				sliceEnd = dayEnd
			}

			key := timeutil.DayKey(cur)
			bucket, ok := buckets[key]
			if !ok {
				bucket = &DayBucket{Date: key}
				buckets[key] = bucket
			}

			secs := int64(sliceEnd.Sub(cur) / time.Second)
			if seg.state == posture.StateIncorrect {
				bucket.IncorrectSeconds += secs
			} else {
				bucket.CorrectSeconds += secs
			}

			cur = sliceEnd
		}
	}

	series := make([]DayBucket, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, *b)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// ══════════════════════════════════════════════════════════════════════════════
// TREND
// ══════════════════════════════════════════════════════════════════════════════

// PercentChange computes the relative change from prev to cur in percent.
// Growing from zero counts as +100%; zero to zero is flat.
func PercentChange(cur, prev float64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return (cur - prev) / prev * 100
}

// FormatChange renders a percent change with one decimal and an explicit
// sign: "+100.0%", "-50.0%", "0.0%".
func FormatChange(change float64) string {
	if change == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%+.1f%%", change)
}

// Trend compares a current value against the preceding period's value and
// returns the formatted change.
func Trend(cur, prev float64) string {
	return FormatChange(PercentChange(cur, prev))
}
