package exporter

import (
	"sort"
	"time"

	"pasc/internal/source"
	"pasc/pkg/contracts/domain"
)

// SensorStat is one sensor's observation span in the combined table.
type SensorStat struct {
	Sensor       string
	First        time.Time
	Last         time.Time
	Observations int
}

// CollectStats computes each sensor's first and last observation plus the
// observation count, sorted by sensor name.
func CollectStats(rows []domain.Row) []SensorStat {
	byName := make(map[string]*SensorStat)
	for _, row := range rows {
		st, ok := byName[row.Sensor]
		if !ok {
			st = &SensorStat{Sensor: row.Sensor, First: row.Time, Last: row.Time}
			byName[row.Sensor] = st
		}
		if row.Time.Before(st.First) {
			st.First = row.Time
		}
		if row.Time.After(st.Last) {
			st.Last = row.Time
		}
		st.Observations++
	}

	out := make([]SensorStat, 0, len(byName))
	for _, st := range byName {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sensor < out[j].Sensor })
	return out
}

// WriteStats writes the per-sensor span report, timestamps localized.
func (w *CSVWriter) WriteStats(stats []SensorStat, tz *time.Location, tzTag string) error {
	headers := []string{"Sensor", "First_" + tzTag, "Last_" + tzTag, "Observations"}
	records := make([][]string, 0, len(stats))
	for _, st := range stats {
		records = append(records, []string{
			st.Sensor,
			st.First.In(tz).Format(timestampLayout),
			st.Last.In(tz).Format(timestampLayout),
			formatInt(int64(st.Observations)),
		})
	}
	return w.WriteSimpleCSV(StatsFilename, headers, records)
}

// WriteSourceReport writes the upwind/downwind attribution report,
// timestamps localized.
func (w *CSVWriter) WriteSourceReport(attrs []source.Attribution, tz *time.Location, tzTag string) error {
	headers := []string{
		"Sensor",
		"DateTime_" + tzTag,
		"Lat",
		"Lon",
		"Distance_miles",
		"Bearing_deg",
		"WindVector_deg",
		"WindSpeed_mph",
		"Side",
	}
	records := make([][]string, 0, len(attrs))
	for _, a := range attrs {
		records = append(records, []string{
			a.Sensor,
			a.Time.In(tz).Format(timestampLayout),
			formatCoord(a.Lat),
			formatCoord(a.Lon),
			formatFloat(a.DistanceMiles),
			formatFloat(a.BearingDeg),
			formatFloat(a.WindVector),
			formatFloat(a.WindSpeed),
			a.Side,
		})
	}
	return w.WriteSimpleCSV(SourceFilename, headers, records)
}
