package pipeline

import (
	"math"

	"pasc/pkg/contracts/domain"
)

// Thresholds are the dual-channel acceptance limits. The defaults are the
// values the data source community settled on; they have no documented
// derivation, so they are configuration rather than re-derived constants.
type Thresholds struct {
	Abs     float64 // reject when |A-B| >= Abs
	Rel     float64 // reject when |A-B| / ((A+B)/2 + Epsilon) >= Rel
	Epsilon float64 // guards the relative test when both readings are zero
}

// DefaultThresholds returns the documented acceptance defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Abs: 5.0, Rel: 0.70, Epsilon: 1e-5}
}

// PrimaryGuardColumns are the concentration variants cross-validated
// between the A and B channels; both must pass independently.
var PrimaryGuardColumns = []string{domain.ColPM25ATM, domain.ColPM25CF1}

// agrees applies both threshold tests to one channel pair.
func (t Thresholds) agrees(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff >= t.Abs {
		return false
	}
	mean := (a + b) / 2
	return diff/(mean+t.Epsilon) < t.Rel
}

// MergeChannels inner-joins two aggregated channel grids on
// (sensor, timestamp). Rows present in only one channel are dropped. For
// every column in guarded, both channels' readings must agree within the
// thresholds or the whole row is rejected. Surviving paired columns are
// replaced by their per-pair mean; channel-unique columns are carried
// through unpaired, A winning when identity data is duplicated.
func MergeChannels(a, b []domain.Row, th Thresholds, guarded []string) []domain.Row {
	bIndex := make(map[slotKey]domain.Row, len(b))
	for _, row := range b {
		bIndex[slotKey{sensor: row.Sensor, slot: row.Time.Unix()}] = row
	}

	out := make([]domain.Row, 0, len(a))
	for _, rowA := range a {
		rowB, ok := bIndex[slotKey{sensor: rowA.Sensor, slot: rowA.Time.Unix()}]
		if !ok {
			continue
		}

		if !channelsAgree(rowA, rowB, th, guarded) {
			continue
		}

		values := make(map[string]float64, len(rowA.Values)+len(rowB.Values))
		for col, va := range rowA.Values {
			if vb, ok := rowB.Values[col]; ok {
				values[col] = (va + vb) / 2
			} else {
				values[col] = va
			}
		}
		for col, vb := range rowB.Values {
			if _, ok := rowA.Values[col]; !ok {
				values[col] = vb
			}
		}

		merged := domain.Row{
			Sensor: rowA.Sensor,
			Time:   rowA.Time,
			Lat:    rowA.Lat,
			Lon:    rowA.Lon,
			Values: values,
		}
		if merged.Lat == nil {
			merged.Lat = rowB.Lat
		}
		if merged.Lon == nil {
			merged.Lon = rowB.Lon
		}
		out = append(out, merged)
	}
	domain.SortRows(out)
	return out
}

// channelsAgree requires every guarded column to be present on both
// channels and within thresholds. A guarded column missing from either
// channel fails the row: a pair that cannot be cross-validated is not
// trustworthy enough to average.
func channelsAgree(a, b domain.Row, th Thresholds, guarded []string) bool {
	for _, col := range guarded {
		va, okA := a.Values[col]
		vb, okB := b.Values[col]
		if !okA || !okB {
			return false
		}
		if !th.agrees(va, vb) {
			return false
		}
	}
	return true
}

// JoinKinds left-joins reconciled secondary (particle count) rows onto the
// reconciled primary series on (sensor, timestamp). Primary rows without a
// secondary counterpart keep their mass concentrations; secondary-only
// slots are dropped, since the primary series is the validated backbone.
func JoinKinds(primary, secondary []domain.Row) []domain.Row {
	secIndex := make(map[slotKey]domain.Row, len(secondary))
	for _, row := range secondary {
		secIndex[slotKey{sensor: row.Sensor, slot: row.Time.Unix()}] = row
	}

	out := make([]domain.Row, 0, len(primary))
	for _, row := range primary {
		merged := row.Clone()
		if sec, ok := secIndex[slotKey{sensor: row.Sensor, slot: row.Time.Unix()}]; ok {
			for col, v := range sec.Values {
				if _, exists := merged.Values[col]; !exists {
					merged.Values[col] = v
				}
			}
		}
		out = append(out, merged)
	}
	return out
}
