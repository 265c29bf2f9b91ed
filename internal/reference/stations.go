// Package reference merges fixed regulatory-station exports and external
// wind data into the reconciled sensor series.
package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"pasc/pkg/contracts/domain"
)

// StationTableFilename is the static table naming the supported regulatory
// stations. Looked up in the working directory first, then next to the
// binary's current directory.
const StationTableFilename = "pasc_ref_stations.csv"

// FindStationTable returns the first existing candidate path.
func FindStationTable(dirs ...string) (string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, StationTableFilename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("station table %s not found", StationTableFilename)
}

// LoadStations reads the static station table. Expected columns:
// sensor_name, site_name, AQS_NO, ARB_NO, Lat, Lon, Elev_M, Address,
// filename_format, with a header row.
func LoadStations(path string) (map[string]domain.Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station table %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read station table %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("station table %s has no data rows", path)
	}

	stations := make(map[string]domain.Station, len(records)-1)
	for lineNo, rec := range records[1:] {
		if len(rec) < 9 {
			return nil, fmt.Errorf("station table %s line %d: expected 9 columns, got %d", path, lineNo+2, len(rec))
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("station table %s line %d: parse latitude: %w", path, lineNo+2, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
		if err != nil {
			return nil, fmt.Errorf("station table %s line %d: parse longitude: %w", path, lineNo+2, err)
		}
		elev, _ := strconv.ParseFloat(strings.TrimSpace(rec[6]), 64)

		name := strings.TrimSpace(rec[0])
		stations[name] = domain.Station{
			SensorName:     name,
			SiteName:       strings.TrimSpace(rec[1]),
			AQSNo:          strings.TrimSpace(rec[2]),
			ARBNo:          strings.TrimSpace(rec[3]),
			Lat:            lat,
			Lon:            lon,
			ElevM:          elev,
			Address:        strings.TrimSpace(rec[7]),
			FilenameFormat: strings.TrimSpace(rec[8]),
		}
	}
	return stations, nil
}

// ListStations prints the station table in a fixed-width listing, the
// reference for users naming their downloaded files.
func ListStations(w io.Writer, stations map[string]domain.Station) {
	names := make([]string, 0, len(stations))
	for name := range stations {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Sensor Name\tSite Name\tLat\tLon\tFilename Format (xx = wd, ws, 25 or te)")
	for _, name := range names {
		s := stations[name]
		fmt.Fprintf(tw, "%s\t%s\t%.6f\t%.6f\t%s\n", s.SensorName, s.SiteName, s.Lat, s.Lon, s.FilenameFormat)
	}
	tw.Flush()
}
