package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/internal/reference"
	"pasc/internal/source"
	"pasc/pkg/contracts/domain"
)

func TestCollectStats(t *testing.T) {
	base := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Row{
		{Sensor: "B2", Time: base.Add(2 * time.Hour), Values: map[string]float64{}},
		{Sensor: "A1", Time: base.Add(time.Hour), Values: map[string]float64{}},
		{Sensor: "A1", Time: base, Values: map[string]float64{}},
	}

	stats := CollectStats(rows)
	require.Len(t, stats, 2)
	assert.Equal(t, "A1", stats[0].Sensor)
	assert.Equal(t, base, stats[0].First)
	assert.Equal(t, base.Add(time.Hour), stats[0].Last)
	assert.Equal(t, 2, stats[0].Observations)
	assert.Equal(t, "B2", stats[1].Sensor)
}

func TestWriteStats(t *testing.T) {
	dir := t.TempDir()
	tz := pacific(t)
	stats := []SensorStat{{
		Sensor:       "A1",
		First:        time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC),
		Last:         time.Date(2020, 6, 2, 8, 0, 0, 0, time.UTC),
		Observations: 288,
	}}

	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteStats(stats, tz, "US_Pacific"))

	records := readReport(t, filepath.Join(dir, StatsFilename))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Sensor", "First_US_Pacific", "Last_US_Pacific", "Observations"}, records[0])
	assert.Equal(t, []string{"A1", "2020-06-01 01:00:00", "2020-06-02 01:00:00", "288"}, records[1])
}

func TestWriteSourceReport(t *testing.T) {
	dir := t.TempDir()
	attrs := []source.Attribution{{
		Sensor:        "A1",
		Time:          time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC),
		Lat:           33.7,
		Lon:           -117.4,
		DistanceMiles: 5.25,
		BearingDeg:    350,
		WindVector:    0,
		WindSpeed:     4.5,
		Side:          "downwind",
	}}

	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteSourceReport(attrs, pacific(t), "US_Pacific"))

	records := readReport(t, filepath.Join(dir, SourceFilename))
	require.Len(t, records, 2)
	assert.Equal(t, "downwind", records[1][len(records[1])-1])
	assert.Equal(t, "5.25", records[1][4])
}

func TestWriteCombinedFull(t *testing.T) {
	dir := t.TempDir()
	lat, lon := 33.7, -117.4
	rows := []domain.Row{
		{Sensor: "A1", Time: time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC), Lat: &lat, Lon: &lon,
			Values: map[string]float64{domain.ColPM25ATM: 10.123456, domain.ColTemp: 68}},
		{Sensor: "A1", Time: time.Date(2020, 6, 1, 8, 5, 0, 0, time.UTC), Lat: &lat, Lon: &lon,
			Values: map[string]float64{domain.ColPM25ATM: 11.0, domain.ColPressure: 1013}},
	}

	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteCombinedFull(rows))

	records := readReport(t, filepath.Join(dir, CombinedFullFilename))
	require.Len(t, records, 3)

	// Union of columns across rows, timestamps in UTC.
	assert.Contains(t, records[0], domain.ColTemp)
	assert.Contains(t, records[0], domain.ColPressure)
	assert.Equal(t, "2020-06-01 08:00:00", records[1][1])

	// Full precision survives so a re-read reproduces the values exactly.
	for i, h := range records[0] {
		if h == domain.ColPM25ATM {
			assert.Equal(t, "10.123456", records[1][i])
		}
	}
}

func TestWriteStationMerged(t *testing.T) {
	dir := t.TempDir()
	merged := &reference.Merged{
		Station: "LKE" + domain.RefSuffix,
		Rows: []domain.Row{{
			Sensor: "LKE" + domain.RefSuffix,
			Time:   time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC),
			Values: map[string]float64{domain.ColWindDirection: 180},
		}},
	}

	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteStationMerged(merged))

	_, err := os.Stat(filepath.Join(dir, "LKE_station_merged.csv"))
	assert.NoError(t, err)
}

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\xef\xbb\xbf")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}
