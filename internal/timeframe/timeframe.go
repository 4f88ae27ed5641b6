// Package timeframe provides day bucketing for ingested events and the
// date range that scopes a feed subscription.
//
// Two bucket functions exist on purpose and must not be conflated:
// DayBucketStart yields a UTC-day grouping key, DayBucketLabel yields the
// calendar-day display label in the viewer's local offset. Two events can
// share a UTC bucket and still label as different local days, and vice
// versa.
package timeframe

import (
	"fmt"
	"sort"
	"time"
)

const (
	dayMillis = 24 * 60 * 60 * 1000
	dayLayout = "2006-01-02"
)

// DateStat is one point of a per-day time series.
type DateStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Offset is the viewer's UTC offset, captured once at startup and passed
// explicitly. It is deliberately fixed for the session: DST transitions
// mid-session do not re-bucket already ingested data.
type Offset struct {
	seconds int
}

// CaptureOffset samples the UTC offset of loc at time now.
func CaptureOffset(now time.Time, loc *time.Location) Offset {
	_, secs := now.In(loc).Zone()
	return Offset{seconds: secs}
}

// FixedOffset builds an Offset from whole minutes east of UTC.
func FixedOffset(minutesEast int) Offset {
	return Offset{seconds: minutesEast * 60}
}

func (o Offset) location() *time.Location {
	return time.FixedZone("viewer", o.seconds)
}

// DayBucketStart truncates an epoch-millisecond timestamp to the start of
// its UTC day. Grouping key only, never a display value.
func DayBucketStart(tsMillis int64) int64 {
	return tsMillis / dayMillis * dayMillis
}

// DayBucketLabel formats an epoch-millisecond timestamp as YYYY-MM-DD in
// the viewer's offset.
func DayBucketLabel(tsMillis int64, offset Offset) string {
	return time.UnixMilli(tsMillis).In(offset.location()).Format(dayLayout)
}

// CountByDay groups epoch-second timestamps into per-day counts labeled in
// the viewer's offset. The series is sorted descending by date.
func CountByDay(timestamps []int64, offset Offset) []DateStat {
	counts := make(map[string]int, len(timestamps))
	for _, ts := range timestamps {
		counts[DayBucketLabel(ts*1000, offset)]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))

	series := make([]DateStat, len(labels))
	for i, label := range labels {
		series[i] = DateStat{Date: label, Count: counts[label]}
	}
	return series
}

// DateRange is an inclusive [Start, End] window at day granularity. It
// drives the subscription's since/until filter.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and builds a range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("range start %s is after end %s",
			start.Format(dayLayout), end.Format(dayLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// LastNDays returns the range covering the n days ending at now.
func LastNDays(n int, now time.Time) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -(n - 1)), End: now}
}

// SinceUnix is the start of the range's first day in the viewer's offset,
// as epoch seconds.
func (r DateRange) SinceUnix(offset Offset) int64 {
	loc := offset.location()
	t := r.Start.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).Unix()
}

// UntilUnix is the end of the range's last day in the viewer's offset
// (23:59:59), as epoch seconds.
func (r DateRange) UntilUnix(offset Offset) int64 {
	loc := offset.location()
	t := r.End.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc).Unix()
}

// Equal reports whether two ranges cover the same instants.
func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}
