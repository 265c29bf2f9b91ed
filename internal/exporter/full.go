package exporter

import (
	"sort"
	"strings"

	"pasc/internal/reference"
	"pasc/pkg/contracts/domain"
)

// preferredOrder fixes the column order of the full-resolution table for
// every canonical column; columns outside it sort alphabetically after.
var preferredOrder = []string{
	domain.ColPM1ATM,
	domain.ColPM25ATM,
	domain.ColPM10ATM,
	domain.ColPM1CF1,
	domain.ColPM25CF1,
	domain.ColPM10CF1,
	domain.ColCount03,
	domain.ColCount05,
	domain.ColCount10,
	domain.ColCount25,
	domain.ColCount50,
	domain.ColCount100,
	domain.ColAQI,
	domain.ColEPA,
	domain.ColUptime,
	domain.ColFreeMem,
	domain.ColRSSI,
	domain.ColADC,
	domain.ColTemp,
	domain.ColHumidity,
	domain.ColPressure,
	domain.ColWindDirection,
	domain.ColWindSpeed,
}

// unionColumns returns every value column present anywhere in the rows, in
// preferred order.
func unionColumns(rows []domain.Row) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for col := range row.Values {
			present[col] = true
		}
	}

	var cols []string
	for _, col := range preferredOrder {
		if present[col] {
			cols = append(cols, col)
			delete(present, col)
		}
	}
	var extras []string
	for col := range present {
		extras = append(extras, col)
	}
	sort.Strings(extras)
	return append(cols, extras...)
}

// buildTable renders rows against an explicit column set, UTC timestamps.
func buildTable(rows []domain.Row, cols []string) ([]string, [][]string) {
	headers := append([]string{"Sensor", "DateTime_UTC"}, cols...)
	headers = append(headers, "Lat", "Lon")

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := []string{row.Sensor, row.Time.UTC().Format(timestampLayout)}
		for _, col := range cols {
			if v, ok := row.Value(col); ok {
				rec = append(rec, formatExact(v))
			} else {
				rec = append(rec, "")
			}
		}
		if row.Lat != nil && row.Lon != nil {
			rec = append(rec, formatCoord(*row.Lat), formatCoord(*row.Lon))
		} else {
			rec = append(rec, "", "")
		}
		records = append(records, rec)
	}
	return headers, records
}

// WriteCombinedFull writes the full-resolution reconciled table before any
// resampling, the audit trail for the summarized reports.
func (w *CSVWriter) WriteCombinedFull(rows []domain.Row) error {
	headers, records := buildTable(rows, unionColumns(rows))
	return w.WriteSimpleCSV(CombinedFullFilename, headers, records)
}

// WriteStationMerged writes one station's merged per-variable table as
// "<id>_station_merged.csv", so a reconciled download can be inspected on
// its own.
func (w *CSVWriter) WriteStationMerged(merged *reference.Merged) error {
	id := strings.TrimSuffix(merged.Station, domain.RefSuffix)
	headers, records := buildTable(merged.Rows, unionColumns(merged.Rows))
	return w.WriteSimpleCSV(id+"_station_merged.csv", headers, records)
}
