package domain

import (
	"sort"
	"strings"
	"time"
)

// Canonical column names shared by every pipeline stage. Input files are
// renamed to these before any column-dependent logic runs.
const (
	ColTimestamp = "created_at"
	ColEntryID   = "entry_id"

	ColPM1ATM  = "PM1.0_CF_ATM_ug/m3"
	ColPM25ATM = "PM2.5_CF_ATM_ug/m3"
	ColPM10ATM = "PM10.0_CF_ATM_ug/m3"
	ColPM1CF1  = "PM1.0_CF_1_ug/m3"
	ColPM25CF1 = "PM2.5_CF_1_ug/m3"
	ColPM10CF1 = "PM10.0_CF_1_ug/m3"

	ColCount03  = "0.3um/dl"
	ColCount05  = "0.5um/dl"
	ColCount10  = "1.0um/dl"
	ColCount25  = "2.5um/dl"
	ColCount50  = "5.0um/dl"
	ColCount100 = "10.0um/dl"

	ColUptime   = "UptimeMinutes"
	ColRSSI     = "RSSI_dbm"
	ColADC      = "ADC"
	ColFreeMem  = "Free_Mem"
	ColTemp     = "Temperature_F"
	ColHumidity = "Humidity_%"
	ColPressure = "Pressure_hpa"

	ColAQI = "PM2.5_AQI"
	ColEPA = "PM2.5_EPA_ug/m3"

	ColWindDirection = "WindDirection"
	ColWindSpeed     = "WindSpeed"
)

// RefSuffix marks pseudo-sensors appended from regulatory reference stations.
const RefSuffix = "_REF"

// Kind identifies one of the four sensor export file families.
type Kind int

const (
	PrimaryA Kind = iota
	PrimaryB
	SecondaryA
	SecondaryB
)

// String returns the filename-style name of the kind.
func (k Kind) String() string {
	switch k {
	case PrimaryA:
		return "primary_a"
	case PrimaryB:
		return "primary_b"
	case SecondaryA:
		return "secondary_a"
	case SecondaryB:
		return "secondary_b"
	}
	return "unknown"
}

// Row is one sensor observation: identity fields plus a sparse set of
// numeric measurement columns keyed by canonical column name. A column
// absent from Values was absent from the source data; zero is a real
// reading, not a fill value.
type Row struct {
	Sensor string
	Time   time.Time // always UTC
	Lat    *float64
	Lon    *float64
	Values map[string]float64
}

// Value returns the named column and whether it is present.
func (r Row) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// IsReference reports whether the row belongs to a reference-station
// pseudo-sensor rather than a physical sensor.
func (r Row) IsReference() bool {
	return strings.HasSuffix(r.Sensor, RefSuffix)
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := r
	out.Values = make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	if r.Lat != nil {
		lat := *r.Lat
		out.Lat = &lat
	}
	if r.Lon != nil {
		lon := *r.Lon
		out.Lon = &lon
	}
	return out
}

// SortRows orders rows by sensor then timestamp, the canonical order every
// stage emits.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Sensor != rows[j].Sensor {
			return rows[i].Sensor < rows[j].Sensor
		}
		return rows[i].Time.Before(rows[j].Time)
	})
}

// DateRange bounds a set of observations, floored/ceiled to the hour. It is
// used to clip reference and wind data to the sensor observation window.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// RangeOf computes the hour-aligned date range of the given rows. The second
// return value is false when rows is empty.
func RangeOf(rows []Row) (DateRange, bool) {
	if len(rows) == 0 {
		return DateRange{}, false
	}
	min, max := rows[0].Time, rows[0].Time
	for _, r := range rows[1:] {
		if r.Time.Before(min) {
			min = r.Time
		}
		if r.Time.After(max) {
			max = r.Time
		}
	}
	floored := min.Truncate(time.Hour)
	ceiled := max.Truncate(time.Hour)
	if ceiled.Before(max) {
		ceiled = ceiled.Add(time.Hour)
	}
	return DateRange{Min: floored, Max: ceiled}, true
}

// Contains reports whether t falls within the range, bounds inclusive.
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.Min) && !t.After(d.Max)
}
