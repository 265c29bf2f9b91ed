package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/pkg/contracts/domain"
)

func at(minute, second int) time.Time {
	return time.Date(2020, 1, 1, 0, minute, second, 0, time.UTC)
}

func row(sensor string, t time.Time, values map[string]float64) domain.Row {
	return domain.Row{Sensor: sensor, Time: t, Values: values}
}

func TestAggregateChannel(t *testing.T) {
	lat, lon := 33.7, -117.4

	t.Run("observations in one slot average per column", func(t *testing.T) {
		rows := []domain.Row{
			{Sensor: "A1", Time: at(0, 30), Lat: &lat, Lon: &lon,
				Values: map[string]float64{domain.ColPM25ATM: 10.0, domain.ColTemp: 68}},
			{Sensor: "A1", Time: at(2, 0), Lat: &lat, Lon: &lon,
				Values: map[string]float64{domain.ColPM25ATM: 14.0}},
		}

		out := AggregateChannel(rows, 5*time.Minute)
		require.Len(t, out, 1)
		assert.Equal(t, at(0, 0), out[0].Time)

		v, ok := out[0].Value(domain.ColPM25ATM)
		require.True(t, ok)
		assert.Equal(t, 12.0, v)

		// Temp was present in only one observation, so its mean is that
		// observation, not half of it.
		v, ok = out[0].Value(domain.ColTemp)
		require.True(t, ok)
		assert.Equal(t, 68.0, v)

		require.NotNil(t, out[0].Lat)
		assert.Equal(t, lat, *out[0].Lat)
	})

	t.Run("slots without observations stay absent", func(t *testing.T) {
		rows := []domain.Row{
			row("A1", at(0, 0), map[string]float64{domain.ColPM25ATM: 10}),
			row("A1", at(20, 0), map[string]float64{domain.ColPM25ATM: 12}),
		}

		out := AggregateChannel(rows, 5*time.Minute)
		require.Len(t, out, 2)
		assert.Equal(t, at(0, 0), out[0].Time)
		assert.Equal(t, at(20, 0), out[1].Time)
	})

	t.Run("sensors bucket independently", func(t *testing.T) {
		rows := []domain.Row{
			row("A1", at(1, 0), map[string]float64{domain.ColPM25ATM: 10}),
			row("B2", at(1, 0), map[string]float64{domain.ColPM25ATM: 99}),
		}

		out := AggregateChannel(rows, 5*time.Minute)
		require.Len(t, out, 2)
		assert.Equal(t, "A1", out[0].Sensor)
		assert.Equal(t, "B2", out[1].Sensor)
	})
}
