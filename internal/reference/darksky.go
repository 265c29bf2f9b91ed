package reference

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pasc/pkg/contracts/domain"
)

// DarkskyFilename is the pre-merged external wind file read directly,
// bypassing the station reconciliation path. Its timestamps are already
// UTC.
const DarkskyFilename = "DSKY_station_merged.csv"

// LoadDarkskyWind reads the pre-merged wind file and returns the wind
// series clipped to the sensor observation window.
func LoadDarkskyWind(dir string, window domain.DateRange) (WindSeries, error) {
	path := filepath.Join(dir, DarkskyFilename)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open darksky wind file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read darksky wind file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("darksky wind file %s has no data rows", path)
	}

	tsIdx, dirIdx, spdIdx := -1, -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case "DateTime_UTC":
			tsIdx = i
		case domain.ColWindDirection:
			dirIdx = i
		case domain.ColWindSpeed:
			spdIdx = i
		}
	}
	if tsIdx < 0 || dirIdx < 0 || spdIdx < 0 {
		return nil, fmt.Errorf("darksky wind file %s: expected DateTime_UTC, WindDirection and WindSpeed columns", path)
	}

	wind := make(WindSeries, len(records)-1)
	for _, rec := range records[1:] {
		if tsIdx >= len(rec) || dirIdx >= len(rec) || spdIdx >= len(rec) {
			continue
		}
		t, err := time.Parse(stationTimestampLayout, strings.TrimSpace(rec[tsIdx]))
		if err != nil {
			continue
		}
		t = t.UTC()
		if !window.Contains(t) {
			continue
		}
		d, errD := strconv.ParseFloat(strings.TrimSpace(rec[dirIdx]), 64)
		s, errS := strconv.ParseFloat(strings.TrimSpace(rec[spdIdx]), 64)
		if errD != nil || errS != nil {
			continue
		}
		wind[t.Unix()] = Wind{Direction: d, Speed: s}
	}
	return wind, nil
}
