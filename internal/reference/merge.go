package reference

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"pasc/internal/aqi"
	"pasc/pkg/contracts/domain"
)

// Regulatory station exports are not daylight-saving corrected: timestamps
// are always PST, a constant eight hours behind UTC. A fixed offset has no
// DST ambiguity, so the conversion is a plain zone attach and nothing more.
var stationZone = time.FixedZone("PST", -8*3600)

const stationTimestampLayout = "2006-01-02 15:04:05"

// variableColumns maps the 2-character code embedded at the end of a
// reference filename stem to the canonical column the file's Value column
// holds.
var variableColumns = map[string]string{
	"wd": domain.ColWindDirection,
	"ws": domain.ColWindSpeed,
	"25": domain.ColPM25ATM,
	"te": domain.ColTemp,
}

// Merged is the outcome of combining one station's per-variable files.
type Merged struct {
	Station string       // pseudo-sensor identifier, "<id>_REF"
	Rows    []domain.Row // full merged table including wind columns, UTC
}

// StationID derives the pseudo-sensor identifier from a reference filename:
// the stem up to the first underscore, suffixed "_REF".
func StationID(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.Index(stem, "_"); i > 0 {
		stem = stem[:i]
	}
	return strings.ToUpper(strings.TrimSpace(stem)) + domain.RefSuffix
}

// VariableCode returns the 2-character variable code from a reference
// filename, the last two characters of the stem.
func VariableCode(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if len(stem) < 2 {
		return ""
	}
	return strings.ToLower(stem[len(stem)-2:])
}

// MergeStation reads every per-variable file of one station and inner-joins
// them on timestamp: a timestamp contributes a merged row only when every
// variable file has a reading for it. Timestamps convert from the fixed
// PST offset to UTC and the result is clipped to the sensor observation
// window.
func MergeStation(paths []string, stations map[string]domain.Station, window domain.DateRange, logger *slog.Logger) (*Merged, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no reference files to merge")
	}

	station := StationID(paths[0])
	st, ok := stations[station]
	if !ok {
		return nil, fmt.Errorf("station %q not present in the station table", station)
	}

	// variable -> timestamp -> value
	series := make(map[string]map[int64]float64, len(paths))
	for _, path := range paths {
		code := VariableCode(path)
		col, ok := variableColumns[code]
		if !ok {
			return nil, fmt.Errorf("%s: unknown variable code %q (expected wd, ws, 25 or te)", filepath.Base(path), code)
		}
		if StationID(path) != station {
			return nil, fmt.Errorf("%s: belongs to station %s, expected %s; merge one station at a time",
				filepath.Base(path), StationID(path), station)
		}

		values, err := readVariableFile(path)
		if err != nil {
			return nil, err
		}
		series[col] = values
		logger.Debug("read reference variable file",
			slog.String("file", filepath.Base(path)),
			slog.String("column", col),
			slog.Int("rows", len(values)))
	}

	// Inner join across all variables on timestamp.
	var first map[int64]float64
	for _, values := range series {
		first = values
		break
	}
	var stamps []int64
	for ts := range first {
		present := true
		for _, values := range series {
			if _, ok := values[ts]; !ok {
				present = false
				break
			}
		}
		if present {
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	lat, lon := st.Lat, st.Lon
	rows := make([]domain.Row, 0, len(stamps))
	for _, ts := range stamps {
		t := time.Unix(ts, 0).UTC()
		if !window.Contains(t) {
			continue
		}
		values := make(map[string]float64, len(series))
		for col, byStamp := range series {
			values[col] = byStamp[ts]
		}
		rows = append(rows, domain.Row{
			Sensor: station,
			Time:   t,
			Lat:    &lat,
			Lon:    &lon,
			Values: values,
		})
	}

	return &Merged{Station: station, Rows: rows}, nil
}

// readVariableFile parses one two-column ("Date Time", "Value") export,
// keyed by the UTC unix timestamp after the fixed-offset conversion.
func readVariableFile(path string) (map[int64]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty reference file", filepath.Base(path))
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case "Date Time":
			dateIdx = i
		case "Value":
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("%s: expected \"Date Time\" and \"Value\" columns", filepath.Base(path))
	}

	values := make(map[int64]float64, len(records)-1)
	for _, rec := range records[1:] {
		if dateIdx >= len(rec) || valueIdx >= len(rec) {
			continue
		}
		local, err := time.ParseInLocation(stationTimestampLayout, strings.TrimSpace(rec[dateIdx]), stationZone)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64)
		if err != nil {
			continue
		}
		values[local.UTC().Unix()] = v
	}
	return values, nil
}

// AppendToSeries strips the wind columns from the merged station table,
// computes the rolling index on the station's own concentration series, and
// appends the result to the reconciled sensor rows as a pseudo-sensor. The
// station was never part of the dual-channel reconciliation, which is why
// its index is computed here rather than with the sensors.
func AppendToSeries(rows []domain.Row, merged *Merged) []domain.Row {
	stationRows := make([]domain.Row, 0, len(merged.Rows))
	for _, row := range merged.Rows {
		r := row.Clone()
		delete(r.Values, domain.ColWindDirection)
		delete(r.Values, domain.ColWindSpeed)
		stationRows = append(stationRows, r)
	}
	aqi.Apply(stationRows)

	out := append(rows, stationRows...)
	domain.SortRows(out)
	return out
}

// WindSeries extracts the hourly wind observations from a merged station
// table, keyed by UTC unix timestamp, for rejoining into summary output.
type WindSeries map[int64]Wind

// Wind is one directional observation. Speed is in the source's mph.
type Wind struct {
	Direction float64
	Speed     float64
}

// WindFromMerged builds the wind side series from merged station rows.
func WindFromMerged(rows []domain.Row) WindSeries {
	out := make(WindSeries, len(rows))
	for _, row := range rows {
		dir, okD := row.Value(domain.ColWindDirection)
		spd, okS := row.Value(domain.ColWindSpeed)
		if !okD || !okS {
			continue
		}
		out[row.Time.Unix()] = Wind{Direction: dir, Speed: spd}
	}
	return out
}

// JoinWind left-joins wind observations onto resampled rows by exact
// timestamp. Rows without a matching observation stay windless; the retigo
// formatter drops them when wind output is requested.
func JoinWind(rows []domain.Row, wind WindSeries) {
	for i := range rows {
		w, ok := wind[rows[i].Time.Unix()]
		if !ok {
			continue
		}
		rows[i].Values[domain.ColWindDirection] = w.Direction
		rows[i].Values[domain.ColWindSpeed] = w.Speed
	}
}
