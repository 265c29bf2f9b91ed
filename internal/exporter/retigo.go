package exporter

import (
	"time"

	"pasc/pkg/contracts/domain"
)

// mphToMetersPerSecond converts the station wind speeds for RETIGO, which
// expects m/s.
const mphToMetersPerSecond = 2.23693629

const retigoTimestampLayout = "2006-01-02T15:04:05-07:00"

// RetigoOptions controls the RETIGO rendering.
type RetigoOptions struct {
	Timezone    *time.Location
	IncludeWind bool
}

// BuildRetigo renders resampled rows in the RETIGO import layout. Rows
// without coordinates are dropped since RETIGO plots on a map, and when
// wind output is requested rows without a wind observation are dropped too.
func BuildRetigo(rows []domain.Row, opts RetigoOptions) ([]string, [][]string) {
	headers := []string{
		"Timestamp",
		"EAST_LONGITUDE(deg)",
		"NORTH_LATITUDE(deg)",
		"ID(-)",
		"PM2.5",
	}
	if opts.IncludeWind {
		headers = append(headers, "wind_magnitude(m/s)", "wind_direction(deg)")
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row.Lat == nil || row.Lon == nil {
			continue
		}
		pm, ok := row.Value(domain.ColPM25ATM)
		if !ok {
			continue
		}
		rec := []string{
			row.Time.In(opts.Timezone).Format(retigoTimestampLayout),
			formatCoord(*row.Lon),
			formatCoord(*row.Lat),
			row.Sensor,
			formatFloat(pm),
		}
		if opts.IncludeWind {
			speed, okS := row.Value(domain.ColWindSpeed)
			dir, okD := row.Value(domain.ColWindDirection)
			if !okS || !okD {
				continue
			}
			rec = append(rec, formatFloat(speed/mphToMetersPerSecond), formatFloat(dir))
		}
		records = append(records, rec)
	}
	return headers, records
}

// WriteRetigo writes the RETIGO import file.
func (w *CSVWriter) WriteRetigo(rows []domain.Row, opts RetigoOptions) error {
	headers, records := BuildRetigo(rows, opts)
	return w.WriteSimpleCSV(RetigoFilename, headers, records)
}
