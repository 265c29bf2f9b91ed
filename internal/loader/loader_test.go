package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFilename(t *testing.T) {
	t.Run("well-formed filename", func(t *testing.T) {
		id, err := ParseFilename("sensor1 (33.755 -117.481) Primary 20200101_20200201_a.csv")
		require.NoError(t, err)
		assert.Equal(t, "SENSOR1", id.Sensor)
		require.NotNil(t, id.Lat)
		require.NotNil(t, id.Lon)
		assert.InDelta(t, 33.755, *id.Lat, 1e-9)
		assert.InDelta(t, -117.481, *id.Lon, 1e-9)
	})

	t.Run("malformed filename falls back to truncated stem", func(t *testing.T) {
		id, err := ParseFilename("renamed_export_file.csv")
		require.Error(t, err)
		assert.Equal(t, "renamed", id.Sensor)
		assert.Nil(t, id.Lat)
		assert.Nil(t, id.Lon)
	})

	t.Run("missing coordinates is an error", func(t *testing.T) {
		_, err := ParseFilename("sensor1 Primary 20200101_a.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parentheses")
	})
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const primaryAHeader = "created_at,entry_id,PM1.0_CF_ATM_ug/m3,PM2.5_CF_ATM_ug/m3,PM10.0_CF_ATM_ug/m3,UptimeMinutes,RSSI_dbm,Temperature_F,Humidity_%,PM2.5_CF_1_ug/m3"

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("rows stamped UTC with identity from filename", func(t *testing.T) {
		path := writeCSV(t, dir, "alpha (33.7 -117.4) Primary 0101_a.csv", strings.Join([]string{
			primaryAHeader,
			"2020-01-01 00:00:00 UTC,1,4.0,10.0,12.0,300,-67,68,45,9.5",
			"2020-01-01 00:02:00 UTC,2,4.2,10.4,12.2,302,-67,68,44,9.7",
		}, "\n"))

		rows, err := Load(path, domain.PrimaryA, discardLogger())
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "ALPHA", rows[0].Sensor)
		assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].Time)
		v, ok := rows[0].Value(domain.ColPM25ATM)
		require.True(t, ok)
		assert.Equal(t, 10.0, v)
		v, ok = rows[0].Value(domain.ColHumidity)
		require.True(t, ok)
		assert.Equal(t, 45.0, v)
		require.NotNil(t, rows[0].Lat)
		assert.InDelta(t, 33.7, *rows[0].Lat, 1e-9)
	})

	t.Run("blank and non-numeric cells are absent from Values", func(t *testing.T) {
		path := writeCSV(t, dir, "beta (33.7 -117.4) Primary 0101_a.csv", strings.Join([]string{
			primaryAHeader,
			"2020-01-01 00:00:00,1,4.0,,12.0,nan?,-67,68,45,9.5",
		}, "\n"))

		rows, err := Load(path, domain.PrimaryA, discardLogger())
		require.NoError(t, err)
		require.Len(t, rows, 1)

		_, ok := rows[0].Value(domain.ColPM25ATM)
		assert.False(t, ok)
		_, ok = rows[0].Value(domain.ColUptime)
		assert.False(t, ok)
		v, ok := rows[0].Value(domain.ColPM10ATM)
		require.True(t, ok)
		assert.Equal(t, 12.0, v)
	})

	t.Run("unparseable timestamps skip the row", func(t *testing.T) {
		path := writeCSV(t, dir, "gamma (33.7 -117.4) Primary 0101_a.csv", strings.Join([]string{
			primaryAHeader,
			"not-a-date,1,4.0,10.0,12.0,300,-67,68,45,9.5",
			"2020-01-01 00:02:00,2,4.2,10.4,12.2,302,-67,68,44,9.7",
		}, "\n"))

		rows, err := Load(path, domain.PrimaryA, discardLogger())
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("schema mismatch aborts", func(t *testing.T) {
		path := writeCSV(t, dir, "delta (33.7 -117.4) Primary 0101_a.csv", strings.Join([]string{
			"created_at,Bogus",
			"2020-01-01 00:00:00,1",
		}, "\n"))

		_, err := Load(path, domain.PrimaryA, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema mismatch")
	})
}

func TestLoadKind(t *testing.T) {
	dir := t.TempDir()
	logger := discardLogger()

	full := writeCSV(t, dir, "alpha (33.7 -117.4) Primary 0101_a.csv", strings.Join([]string{
		primaryAHeader,
		"2020-01-01 00:00:00,1,4.0,10.0,12.0,300,-67,68,45,9.5",
	}, "\n"))
	empty := writeCSV(t, dir, "beta (33.8 -117.5) Primary 0101_a.csv", primaryAHeader)

	t.Run("empty files skipped, rows concatenated", func(t *testing.T) {
		rows, err := LoadKind([]string{full, empty}, domain.PrimaryA, logger)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("unreadable file aborts the batch", func(t *testing.T) {
		_, err := LoadKind([]string{full, filepath.Join(dir, "missing.csv")}, domain.PrimaryA, logger)
		require.Error(t, err)
	})
}
