package timeframe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/balance-history/pkg/utils"
)

func TestParseGranularity(t *testing.T) {
	for _, value := range []string{"hourly", "daily", "weekly", "monthly", "DAILY", " weekly "} {
		granularity, err := ParseGranularity(value)
		require.NoError(t, err, "value %q", value)
		assert.NotEmpty(t, granularity)
	}

	for _, value := range []string{"", "yearly", "30d", "day"} {
		_, err := ParseGranularity(value)
		require.Error(t, err, "value %q", value)

		var appErr *utils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, utils.ErrCodeInvalidInterval, appErr.Code)
	}
}

func TestParseChartRejectsInvalidRange(t *testing.T) {
	_, err := ParseChart("2025-01-05T00:00:00", "2025-01-01T00:00:00")
	require.Error(t, err)

	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.ErrCodeInvalidRange, appErr.Code)
}

func TestParseChartRejectsMalformedTimestamps(t *testing.T) {
	for _, pair := range [][2]string{
		{"2025-01-01", "2025-01-02T00:00:00"},
		{"2025-01-01T00:00:00", "not-a-time"},
		{"2025-01-01T00:00:00Z", "2025-01-02T00:00:00"}, // timezone suffix not accepted
	} {
		_, err := ParseChart(pair[0], pair[1])
		require.Error(t, err, "pair %v", pair)
	}
}

func TestParseExportDates(t *testing.T) {
	tf, err := ParseExport("2025-01-01", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), tf.Start)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), tf.End)

	_, err = ParseExport("2025-01-01T00:00:00", "2025-02-01")
	require.Error(t, err)
}

func TestSampleInstantsHourly(t *testing.T) {
	tf, err := ParseChart("2025-01-01T00:00:00", "2025-01-01T03:30:00")
	require.NoError(t, err)

	instants := tf.SampleInstants(Hourly)
	require.Len(t, instants, 4)
	assert.Equal(t, tf.Start, instants[0])
	for i := 1; i < len(instants); i++ {
		assert.Equal(t, time.Hour, instants[i].Sub(instants[i-1]))
	}
	// 04:00 would overshoot end_time
	assert.Equal(t, time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC), instants[3])
}

func TestSampleInstantsDailyAnchoredAtStart(t *testing.T) {
	tf, err := ParseChart("2025-01-01T12:30:00", "2025-01-04T12:30:00")
	require.NoError(t, err)

	instants := tf.SampleInstants(Daily)
	require.Len(t, instants, 4)
	for i, instant := range instants {
		assert.Equal(t, tf.Start.AddDate(0, 0, i), instant)
	}
}

func TestSampleInstantsWeekly(t *testing.T) {
	tf, err := ParseChart("2025-01-01T00:00:00", "2025-01-31T00:00:00")
	require.NoError(t, err)

	instants := tf.SampleInstants(Weekly)
	require.Len(t, instants, 5) // Jan 1, 8, 15, 22, 29
	assert.Equal(t, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), instants[4])
}

func TestSampleInstantsSingleWhenStartEqualsEnd(t *testing.T) {
	start := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	tf, err := New(start, start)
	require.NoError(t, err)

	for _, granularity := range []Granularity{Hourly, Daily, Weekly, Monthly} {
		instants := tf.SampleInstants(granularity)
		require.Len(t, instants, 1, "granularity %s", granularity)
		assert.Equal(t, start, instants[0])
	}
}

func TestSampleInstantsMonthlyClampsShortMonths(t *testing.T) {
	tf, err := New(
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	instants := tf.SampleInstants(Monthly)
	require.Len(t, instants, 5)

	// Clamping is per-step from the original anchor: the 31st comes back
	// after short months instead of sticking at 28/30.
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), instants[0])
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), instants[1])
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), instants[2])
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), instants[3])
	assert.Equal(t, time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), instants[4])
}

func TestSampleInstantsMonthlyLeapYear(t *testing.T) {
	tf, err := New(
		time.Date(2024, 1, 31, 6, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	instants := tf.SampleInstants(Monthly)
	require.Len(t, instants, 3)
	assert.Equal(t, time.Date(2024, 2, 29, 6, 0, 0, 0, time.UTC), instants[1])
	assert.Equal(t, time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC), instants[2])
}

func TestSampleInstantsStrictlyIncreasing(t *testing.T) {
	tf, err := New(
		time.Date(2023, 3, 30, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 30, 23, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	for _, granularity := range []Granularity{Hourly, Daily, Weekly, Monthly} {
		instants := tf.SampleInstants(granularity)
		require.NotEmpty(t, instants)
		for i := 1; i < len(instants); i++ {
			assert.True(t, instants[i].After(instants[i-1]),
				"granularity %s: instant %d not increasing", granularity, i)
		}
		assert.False(t, instants[0].Before(tf.Start))
		assert.False(t, instants[len(instants)-1].After(tf.End))
	}
}
