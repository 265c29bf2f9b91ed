package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/pkg/contracts/domain"
)

func TestBuildRetigo(t *testing.T) {
	tz := pacific(t)
	utc := time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC)
	lat, lon := 33.7, -117.4

	withCoords := domain.Row{
		Sensor: "A1", Time: utc, Lat: &lat, Lon: &lon,
		Values: map[string]float64{
			domain.ColPM25ATM:       10.0,
			domain.ColWindDirection: 180,
			domain.ColWindSpeed:     4.5,
		},
	}
	noCoords := domain.Row{
		Sensor: "B2", Time: utc,
		Values: map[string]float64{domain.ColPM25ATM: 10.0},
	}
	noWind := domain.Row{
		Sensor: "C3", Time: utc, Lat: &lat, Lon: &lon,
		Values: map[string]float64{domain.ColPM25ATM: 10.0},
	}

	t.Run("coordinates required, longitude before latitude", func(t *testing.T) {
		headers, records := BuildRetigo([]domain.Row{withCoords, noCoords}, RetigoOptions{Timezone: tz})
		// The import dialect's column names are fixed by the consumer.
		assert.Equal(t, []string{"Timestamp", "EAST_LONGITUDE(deg)", "NORTH_LATITUDE(deg)", "ID(-)", "PM2.5"}, headers)
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "2020-06-01T01:00:00-07:00", rec[0])
		assert.Equal(t, "-117.4", rec[1])
		assert.Equal(t, "33.7", rec[2])
		assert.Equal(t, "A1", rec[3])
		assert.Equal(t, "10", rec[4])
	})

	t.Run("wind output converts mph to m/s and drops windless rows", func(t *testing.T) {
		headers, records := BuildRetigo([]domain.Row{withCoords, noWind}, RetigoOptions{Timezone: tz, IncludeWind: true})
		assert.Equal(t, "wind_magnitude(m/s)", headers[5])
		assert.Equal(t, "wind_direction(deg)", headers[6])
		require.Len(t, records, 1)

		// 4.5 mph / 2.23693629 = 2.0117... rounded to two decimals.
		assert.Equal(t, "2.01", records[0][5])
		assert.Equal(t, "180", records[0][6])
	})
}
