package pipeline

import (
	"time"

	"pasc/pkg/contracts/domain"
)

// Resample groups rows on (sensor, interval slot) and averages numeric
// columns, the same first-observed rule applying to identity columns as the
// channel grid. It is the final temporal stage before output shaping.
func Resample(rows []domain.Row, interval time.Duration) []domain.Row {
	return AggregateChannel(rows, interval)
}

// ConcentrationRange bounds the PM2.5 ATM values accepted into summary
// output. Rows whose reading is missing or outside the range are dropped
// after resampling.
type ConcentrationRange struct {
	Min float64
	Max float64
}

// DefaultConcentrationRange returns the documented summary filter bounds.
func DefaultConcentrationRange() ConcentrationRange {
	return ConcentrationRange{Min: 0, Max: 1000}
}

// FilterSummary drops resampled rows without a usable fine-particulate
// reading.
func FilterSummary(rows []domain.Row, r ConcentrationRange) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Value(domain.ColPM25ATM)
		if !ok || v < r.Min || v > r.Max {
			continue
		}
		out = append(out, row)
	}
	return out
}
