package aqi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/pkg/contracts/domain"
)

func TestApplyEPACorrection(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("corrected value derives from CF1 and humidity", func(t *testing.T) {
		rows := []domain.Row{{Sensor: "A1", Time: now, Values: map[string]float64{
			domain.ColPM25CF1:  20.0,
			domain.ColHumidity: 50.0,
		}}}
		ApplyEPACorrection(rows)

		v, ok := rows[0].Value(domain.ColEPA)
		require.True(t, ok)
		assert.InDelta(t, 0.524*20.0-0.0862*50.0+5.75, v, 1e-9)
	})

	t.Run("negative result clamps to zero", func(t *testing.T) {
		rows := []domain.Row{{Sensor: "A1", Time: now, Values: map[string]float64{
			domain.ColPM25CF1:  0.0,
			domain.ColHumidity: 100.0,
		}}}
		ApplyEPACorrection(rows)

		v, ok := rows[0].Value(domain.ColEPA)
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("missing humidity leaves the row untouched", func(t *testing.T) {
		rows := []domain.Row{{Sensor: "A1", Time: now, Values: map[string]float64{
			domain.ColPM25CF1: 20.0,
		}}}
		ApplyEPACorrection(rows)

		_, ok := rows[0].Value(domain.ColEPA)
		assert.False(t, ok)
	})

	t.Run("reference pseudo-sensors are skipped", func(t *testing.T) {
		rows := []domain.Row{{Sensor: "XYZ" + domain.RefSuffix, Time: now, Values: map[string]float64{
			domain.ColPM25CF1:  20.0,
			domain.ColHumidity: 50.0,
		}}}
		ApplyEPACorrection(rows)

		_, ok := rows[0].Value(domain.ColEPA)
		assert.False(t, ok)
	})
}
