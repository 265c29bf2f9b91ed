package exporter

import (
	"math"
	"strconv"
)

// formatFloat formats a value for CSV output, rounded to two decimals with
// trailing zeros trimmed so 13.40 appears as 13.4 and 13.0 as 13.
func formatFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

// formatExact preserves full float precision, for tables meant to be
// re-read rather than eyeballed.
func formatExact(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatCoord keeps the full precision of a coordinate.
func formatCoord(f float64) string {
	return formatExact(f)
}

// formatInt formats an integral value for CSV output.
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
