// Package timeframe parses request timeframes and generates the ordered
// sample instants a chart request is resolved against.
package timeframe

import (
	"strings"
	"time"

	"github.com/smartdevs17/balance-history/pkg/utils"
)

// Timestamp layouts accepted on the request path. Both are interpreted as UTC.
const (
	ChartTimeLayout  = "2006-01-02T15:04:05"
	ExportDateLayout = "2006-01-02"
)

// Granularity is the spacing between consecutive sample instants.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity validates an interval request parameter.
func ParseGranularity(value string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(value))) {
	case Hourly:
		return Hourly, nil
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", utils.NewAppError(utils.ErrCodeInvalidInterval,
			"Unsupported interval", value)
	}
}

// Timeframe is a validated [Start, End] request range. Start <= End always
// holds for a constructed Timeframe.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// New validates and builds a timeframe.
func New(start, end time.Time) (Timeframe, error) {
	if start.After(end) {
		return Timeframe{}, utils.NewAppError(utils.ErrCodeInvalidRange,
			"start_time must not be after end_time")
	}
	return Timeframe{Start: start, End: end}, nil
}

// ParseChart parses the chart request timeframe (second precision, UTC).
func ParseChart(startValue, endValue string) (Timeframe, error) {
	start, err := time.ParseInLocation(ChartTimeLayout, startValue, time.UTC)
	if err != nil {
		return Timeframe{}, utils.NewAppError(utils.ErrCodeInvalidRange,
			"Malformed start_time", startValue)
	}
	end, err := time.ParseInLocation(ChartTimeLayout, endValue, time.UTC)
	if err != nil {
		return Timeframe{}, utils.NewAppError(utils.ErrCodeInvalidRange,
			"Malformed end_time", endValue)
	}
	return New(start, end)
}

// ParseExport parses the export request timeframe (date precision, UTC).
// Start is inclusive and End exclusive on the export path; the half-open
// semantics are applied by the record filter, not here.
func ParseExport(startValue, endValue string) (Timeframe, error) {
	start, err := time.ParseInLocation(ExportDateLayout, startValue, time.UTC)
	if err != nil {
		return Timeframe{}, utils.NewAppError(utils.ErrCodeInvalidRange,
			"Malformed start_time", startValue)
	}
	end, err := time.ParseInLocation(ExportDateLayout, endValue, time.UTC)
	if err != nil {
		return Timeframe{}, utils.NewAppError(utils.ErrCodeInvalidRange,
			"Malformed end_time", endValue)
	}
	return New(start, end)
}

// SampleInstants generates the ordered sample instants covering the
// timeframe, anchored at Start and spaced one granularity unit apart, up to
// and including the last instant <= End. The sequence is never empty: it
// always contains at least Start.
//
// Monthly advances by calendar month from the Start anchor, clamping the
// anchored day-of-month to the last valid day of shorter months (Jan 31 ->
// Feb 28 -> Mar 31). Anchoring on Start rather than the previous sample
// keeps the original day-of-month once longer months come back.
func (tf Timeframe) SampleInstants(granularity Granularity) []time.Time {
	var instants []time.Time

	switch granularity {
	case Monthly:
		for i := 0; ; i++ {
			instant := addMonthsClamped(tf.Start, i)
			if instant.After(tf.End) {
				break
			}
			instants = append(instants, instant)
		}
	default:
		step := granularity.step()
		for instant := tf.Start; !instant.After(tf.End); instant = instant.Add(step) {
			instants = append(instants, instant)
		}
	}

	return instants
}

// step returns the fixed duration for non-calendar granularities.
func (g Granularity) step() time.Duration {
	switch g {
	case Hourly:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// addMonthsClamped advances t by the given number of calendar months,
// clamping the day-of-month to the target month's length. time.AddDate is
// deliberately avoided here: it normalizes Jan 31 + 1 month to Mar 2/3
// instead of clamping to the end of February.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())

	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in a month; day zero of the following
// month normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
