package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"pasc/pkg/contracts/domain"
)

// IntervalBounds configure native-interval inference. Deltas outside
// [MinDelta, MaxDelta] are discarded as gaps or glitches before the first
// mean; the second pass re-filters to [MinDelta, TrimFactor x first mean] so
// long gaps cannot skew the estimate.
type IntervalBounds struct {
	MinDelta   time.Duration
	MaxDelta   time.Duration
	TrimFactor float64
}

// DefaultIntervalBounds returns the documented inference defaults.
func DefaultIntervalBounds() IntervalBounds {
	return IntervalBounds{
		MinDelta:   10 * time.Second,
		MaxDelta:   36000 * time.Second,
		TrimFactor: 1.2,
	}
}

// IntervalError reports an upsampling request: the requested output
// interval is not coarser than the sensors' native cadence.
type IntervalError struct {
	Requested time.Duration
	Native    time.Duration
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("summary interval (%s = %.0f seconds) <= sensor data interval (%.0f seconds); retry with a larger interval",
		e.Requested, e.Requested.Seconds(), e.Native.Seconds())
}

// NativeInterval infers the native sampling cadence of the non-reference
// rows: consecutive-timestamp deltas per sensor, trimmed twice. Rows must
// be in canonical sensor/time order. Returns an error when too few deltas
// survive to estimate anything.
func NativeInterval(rows []domain.Row, bounds IntervalBounds) (time.Duration, error) {
	var deltas []time.Duration
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.Sensor != prev.Sensor || cur.IsReference() {
			continue
		}
		d := cur.Time.Sub(prev.Time)
		if d >= bounds.MinDelta && d <= bounds.MaxDelta {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return 0, fmt.Errorf("cannot infer native interval: no usable timestamp deltas")
	}

	first := meanDuration(deltas)

	ceiling := time.Duration(float64(first) * bounds.TrimFactor)
	trimmed := deltas[:0]
	for _, d := range deltas {
		if d >= bounds.MinDelta && d <= ceiling {
			trimmed = append(trimmed, d)
		}
	}
	if len(trimmed) == 0 {
		return first, nil
	}
	return meanDuration(trimmed), nil
}

func meanDuration(ds []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// GuardInterval rejects output intervals at or below the native cadence.
// Refusing to upsample means the pipeline never fabricates readings at
// finer granularity than the sensors collected.
func GuardInterval(requested, native time.Duration) error {
	if requested <= native {
		return &IntervalError{Requested: requested, Native: native}
	}
	return nil
}

var intervalRe = regexp.MustCompile(`^(\d*)\s*(W|D|H|min|T|S)$`)

// ParseSummaryInterval converts a pandas-style offset string ("1H",
// "15min", "2T", "W") to a duration. A missing count means 1.
func ParseSummaryInterval(s string) (time.Duration, error) {
	m := intervalRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid summary interval %q: use a count plus W, D, H, min, T or S", s)
	}
	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid summary interval count %q", m[1])
		}
		count = n
	}

	var unit time.Duration
	switch m[2] {
	case "W":
		unit = 7 * 24 * time.Hour
	case "D":
		unit = 24 * time.Hour
	case "H":
		unit = time.Hour
	case "min", "T":
		unit = time.Minute
	case "S":
		unit = time.Second
	}
	return time.Duration(count) * unit, nil
}
