package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrlytics/internal/timeframe"
)

func TestDayBucketStart_TruncatesToUTCDay(t *testing.T) {
	// 2023-11-14 22:13:20 UTC
	ts := int64(1700000000000)
	want := int64(1699920000000) // 2023-11-14 00:00:00 UTC

	assert.Equal(t, want, timeframe.DayBucketStart(ts))
}

func TestDayBucketStart_Idempotent(t *testing.T) {
	timestamps := []int64{0, 1, 1700000000000, 1700003600000, 86399999, 86400000}
	for _, ts := range timestamps {
		once := timeframe.DayBucketStart(ts)
		assert.Equal(t, once, timeframe.DayBucketStart(once), "ts=%d", ts)
	}
}

func TestDayBucketLabel_SameLocalDaySameLabel(t *testing.T) {
	offset := timeframe.FixedOffset(0)

	// Two timestamps one hour apart within the same UTC day
	t1 := int64(1700000000000)
	t2 := int64(1700003600000)

	assert.Equal(t, timeframe.DayBucketLabel(t1, offset), timeframe.DayBucketLabel(t2, offset))
	assert.Equal(t, "2023-11-14", timeframe.DayBucketLabel(t1, offset))
}

func TestDayBucketLabel_LocalDayDiffersFromUTCDay(t *testing.T) {
	// 2023-11-14 23:30 UTC is already Nov 15th for a UTC+2 viewer,
	// while its UTC grouping bucket is still Nov 14th.
	ts := time.Date(2023, 11, 14, 23, 30, 0, 0, time.UTC).UnixMilli()

	assert.Equal(t, "2023-11-14", timeframe.DayBucketLabel(ts, timeframe.FixedOffset(0)))
	assert.Equal(t, "2023-11-15", timeframe.DayBucketLabel(ts, timeframe.FixedOffset(120)))
	assert.Equal(t,
		time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC).UnixMilli(),
		timeframe.DayBucketStart(ts))
}

func TestCaptureOffset_SamplesZoneOnce(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	// Winter: CET = UTC+1
	winter := time.Date(2023, 12, 1, 12, 0, 0, 0, time.UTC)
	offset := timeframe.CaptureOffset(winter, madrid)

	// A summer timestamp is still labeled with the captured winter offset:
	// 2023-07-01 23:30 UTC is 00:30 July 2nd in CEST, but the fixed CET
	// offset keeps it on July 1st.
	summer := time.Date(2023, 7, 1, 23, 30, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2023-07-02", timeframe.DayBucketLabel(summer, timeframe.FixedOffset(60)))
	assert.Equal(t, timeframe.FixedOffset(60), offset)
}

func TestCountByDay_DescendingDateOrder(t *testing.T) {
	offset := timeframe.FixedOffset(0)

	day := func(d int, hour int) int64 {
		return time.Date(2023, 11, d, hour, 0, 0, 0, time.UTC).Unix()
	}

	timestamps := []int64{
		day(14, 10), day(14, 11), // two on the 14th
		day(12, 9),              // one on the 12th
		day(16, 23), day(16, 1), // two on the 16th
	}

	series := timeframe.CountByDay(timestamps, offset)

	require.Len(t, series, 3)
	assert.Equal(t, timeframe.DateStat{Date: "2023-11-16", Count: 2}, series[0])
	assert.Equal(t, timeframe.DateStat{Date: "2023-11-14", Count: 2}, series[1])
	assert.Equal(t, timeframe.DateStat{Date: "2023-11-12", Count: 1}, series[2])
}

func TestCountByDay_ArrivalOrderIrrelevant(t *testing.T) {
	offset := timeframe.FixedOffset(-300)

	timestamps := []int64{1700000000, 1700003600, 1699990000}
	reversed := []int64{1699990000, 1700003600, 1700000000}

	assert.Equal(t,
		timeframe.CountByDay(timestamps, offset),
		timeframe.CountByDay(reversed, offset))
}

func TestDateRange_SinceUntil(t *testing.T) {
	offset := timeframe.FixedOffset(0)

	start := time.Date(2023, 11, 10, 15, 42, 0, 0, time.UTC)
	end := time.Date(2023, 11, 16, 8, 3, 0, 0, time.UTC)

	r, err := timeframe.NewDateRange(start, end)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 11, 10, 0, 0, 0, 0, time.UTC).Unix(), r.SinceUnix(offset))
	assert.Equal(t, time.Date(2023, 11, 16, 23, 59, 59, 0, time.UTC).Unix(), r.UntilUnix(offset))
}

func TestDateRange_SinceUntilRespectsViewerOffset(t *testing.T) {
	// A UTC+9 viewer's "start of day" is 9 hours before UTC midnight.
	offset := timeframe.FixedOffset(9 * 60)

	day := time.Date(2023, 11, 10, 12, 0, 0, 0, time.UTC)
	r, err := timeframe.NewDateRange(day, day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 11, 9, 15, 0, 0, 0, time.UTC).Unix(), r.SinceUnix(offset))
	assert.Equal(t, time.Date(2023, 11, 10, 14, 59, 59, 0, time.UTC).Unix(), r.UntilUnix(offset))
}

func TestNewDateRange_RejectsInvertedRange(t *testing.T) {
	_, err := timeframe.NewDateRange(
		time.Date(2023, 11, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 11, 10, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2023, 11, 16, 10, 0, 0, 0, time.UTC)
	r := timeframe.LastNDays(7, now)

	assert.Equal(t, time.Date(2023, 11, 10, 10, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, now, r.End)
}
