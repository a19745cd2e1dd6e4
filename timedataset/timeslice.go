package timedataset

import (
	"errors"
	"time"
)

// Day is the duration between consecutive points of a daily series.
const Day = 24 * time.Hour

var ErrInvalidRange = errors.New("end date is before start date")

// TimeSlice is an ordered series of time points, typically one per calendar day.
type TimeSlice []time.Time

// StartTime returns the first point or the zero time when empty.
func (t TimeSlice) StartTime() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[0]
}

// EndTime returns the last point or the zero time when empty.
func (t TimeSlice) EndTime() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common spacing between consecutive points so that a daily
// history with a few missing days still reports a daily frequency. Ties go to the shorter
// spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	counts := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		counts[t[i].Sub(t[i-1])]++
	}

	var best time.Duration
	var bestCnt int
	for delta, cnt := range counts {
		if cnt > bestCnt || (cnt == bestCnt && delta < best) {
			best, bestCnt = delta, cnt
		}
	}
	return best, nil
}

// Truncate returns a copy of the time slice with every point moved to midnight UTC of its
// calendar day.
func (t TimeSlice) Truncate() TimeSlice {
	res := make(TimeSlice, len(t))
	for i, ct := range t {
		res[i] = TruncateDay(ct)
	}
	return res
}

// TruncateDay returns midnight UTC of the calendar day of t in its own location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyRange returns every calendar day from start to end inclusive at midnight UTC.
func DailyRange(start, end time.Time) (TimeSlice, error) {
	first := TruncateDay(start)
	last := TruncateDay(end)
	if last.Before(first) {
		return nil, ErrInvalidRange
	}

	n := int(last.Sub(first)/Day) + 1
	res := make(TimeSlice, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, first.AddDate(0, 0, i))
	}
	return res, nil
}
