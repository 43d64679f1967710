// Package histogram selects bucketing intervals for the log volume
// histogram and builds the aggregation SQL the backend evaluates.
package histogram

import (
	"fmt"

	"logsearch/internal/domain"
)

const (
	minute = int64(60) * 1000000
	hour   = 60 * minute
	day    = 24 * hour
)

// threshold pairs a minimum span with the interval and key display format
// that apply at and above it.
type threshold struct {
	span      int64
	interval  string
	keyFormat string
}

// Evaluated ascending with overwrite, so the largest satisfied threshold
// wins.
var ladder = []threshold{
	{30 * minute, "15 second", "HH:mm:ss"},
	{1 * hour, "30 second", "HH:mm:ss"},
	{2 * hour, "1 minute", "MM-DD HH:mm"},
	{6 * hour, "5 minute", "MM-DD HH:mm"},
	{1 * day, "30 minute", "MM-DD HH:mm"},
	{7 * day, "1 hour", "MM-DD HH:mm"},
	{30 * day, "1 day", "YYYY-MM-DD"},
}

// Pick selects the bucketing interval for a time span of durationMicros
// microseconds. Spans below all thresholds bucket at 10 seconds.
func Pick(durationMicros int64) domain.HistogramSpec {
	spec := domain.HistogramSpec{Interval: "10 second", KeyFormat: "HH:mm:ss"}
	for _, t := range ladder {
		if durationMicros >= t.span {
			spec.Interval = t.interval
			spec.KeyFormat = t.keyFormat
		}
	}
	return spec
}

// AggSQL builds the histogram aggregation statement for a stream. The
// selected interval is substituted verbatim.
func AggSQL(stream string, spec domain.HistogramSpec) string {
	return fmt.Sprintf(
		"select histogram(_timestamp, '%s') AS zo_sql_key, count(*) AS zo_sql_num from %q GROUP BY zo_sql_key ORDER BY zo_sql_key",
		spec.Interval, stream,
	)
}
