// Package exporter renders the pipeline's tables into the report files a
// run leaves behind: the combined full-resolution table, the summarized
// CSV and workbook, the RETIGO export and the attribution reports.
package exporter

import (
	"time"

	"pasc/pkg/contracts/domain"
)

// Report filenames written into the working directory.
const (
	CombinedFullFilename = "combined_full_ab.csv"
	SummaryCSVFilename   = "combined_summarized_csv.csv"
	SummaryXLSXFilename  = "combined_summarized_xl.xlsx"
	RetigoFilename       = "combined_summarized_retigo.csv"
	SourceFilename       = "combined_summarized_source.csv"
	StatsFilename        = "sensor_stats.csv"
)

const timestampLayout = "2006-01-02 15:04:05"

// SummaryOptions controls the rendering of the summarized table.
type SummaryOptions struct {
	Timezone    *time.Location
	TimezoneTag string // IANA name, "/" replaced so it survives as a column title
	IncludeWind bool
}

// summaryValueColumns is the fixed column order of the summarized table
// after the identity and timestamp columns.
var summaryValueColumns = []string{
	domain.ColPM1ATM,
	domain.ColPM25ATM,
	domain.ColPM10ATM,
	domain.ColCount03,
	domain.ColCount05,
	domain.ColCount10,
	domain.ColCount25,
	domain.ColCount50,
	domain.ColCount100,
	domain.ColAQI,
	domain.ColEPA,
}

var summaryTrailingColumns = []string{
	domain.ColUptime,
	domain.ColFreeMem,
	domain.ColRSSI,
	domain.ColTemp,
	domain.ColHumidity,
	domain.ColPressure,
}

var summaryWindColumns = []string{
	domain.ColWindDirection,
	domain.ColWindSpeed,
}

// SummaryHeaders returns the header row of the summarized table.
func SummaryHeaders(opts SummaryOptions) []string {
	headers := []string{"Sensor", "DateTime_" + opts.TimezoneTag}
	headers = append(headers, summaryValueColumns...)
	headers = append(headers, "Lat", "Lon")
	headers = append(headers, summaryTrailingColumns...)
	if opts.IncludeWind {
		headers = append(headers, summaryWindColumns...)
	}
	return headers
}

// BuildSummary renders resampled rows into the summarized table's records.
// Timestamps are localized to the output timezone. A missing value renders
// empty, except the air-quality index which renders zero: an empty window
// means no index, and downstream consumers of the summary expect a number
// in that column.
func BuildSummary(rows []domain.Row, opts SummaryOptions) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := []string{row.Sensor, row.Time.In(opts.Timezone).Format(timestampLayout)}
		for _, col := range summaryValueColumns {
			v, ok := row.Value(col)
			switch {
			case col == domain.ColAQI:
				if !ok {
					v = 0
				}
				rec = append(rec, formatInt(int64(v)))
			case ok:
				rec = append(rec, formatFloat(v))
			default:
				rec = append(rec, "")
			}
		}
		if row.Lat != nil && row.Lon != nil {
			rec = append(rec, formatCoord(*row.Lat), formatCoord(*row.Lon))
		} else {
			rec = append(rec, "", "")
		}
		for _, col := range summaryTrailingColumns {
			if v, ok := row.Value(col); ok {
				rec = append(rec, formatFloat(v))
			} else {
				rec = append(rec, "")
			}
		}
		if opts.IncludeWind {
			for _, col := range summaryWindColumns {
				if v, ok := row.Value(col); ok {
					rec = append(rec, formatFloat(v))
				} else {
					rec = append(rec, "")
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

// WriteSummaryCSV writes the summarized table as CSV.
func (w *CSVWriter) WriteSummaryCSV(rows []domain.Row, opts SummaryOptions) error {
	return w.WriteSimpleCSV(SummaryCSVFilename, SummaryHeaders(opts), BuildSummary(rows, opts))
}
