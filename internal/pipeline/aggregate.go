// Package pipeline contains the reconciliation and resampling stages: each
// is a pure function from rows plus explicit configuration to new rows, so
// every stage can be tested with literal fixtures.
package pipeline

import (
	"time"

	"pasc/pkg/contracts/domain"
)

// DefaultGridInterval is the fixed sub-interval both channels are aligned
// to before dual-channel comparison. It normalizes irregular native
// cadence across firmware versions.
const DefaultGridInterval = 5 * time.Minute

type slotKey struct {
	sensor string
	slot   int64 // unix seconds of the grid slot
}

type bucket struct {
	sums   map[string]float64
	counts map[string]int
	lat    *float64
	lon    *float64
}

// AggregateChannel groups rows by sensor and resamples each group onto a
// fixed grid: numeric measurement columns by arithmetic mean, identity
// columns (sensor, coordinates) by first observed value in the bucket.
// Slots with no source observation are absent from the output, not
// zero-filled.
func AggregateChannel(rows []domain.Row, grid time.Duration) []domain.Row {
	if grid <= 0 {
		grid = DefaultGridInterval
	}

	buckets := make(map[slotKey]*bucket)
	for _, row := range rows {
		slot := row.Time.Truncate(grid)
		key := slotKey{sensor: row.Sensor, slot: slot.Unix()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				sums:   make(map[string]float64),
				counts: make(map[string]int),
				lat:    row.Lat,
				lon:    row.Lon,
			}
			buckets[key] = b
		}
		for col, v := range row.Values {
			b.sums[col] += v
			b.counts[col]++
		}
	}

	out := make([]domain.Row, 0, len(buckets))
	for key, b := range buckets {
		values := make(map[string]float64, len(b.sums))
		for col, sum := range b.sums {
			values[col] = sum / float64(b.counts[col])
		}
		out = append(out, domain.Row{
			Sensor: key.sensor,
			Time:   time.Unix(key.slot, 0).UTC(),
			Lat:    b.lat,
			Lon:    b.lon,
			Values: values,
		})
	}
	domain.SortRows(out)
	return out
}
