package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowClone(t *testing.T) {
	lat := 33.7
	r := Row{
		Sensor: "A1",
		Time:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Lat:    &lat,
		Values: map[string]float64{ColPM25ATM: 10},
	}

	c := r.Clone()
	c.Values[ColPM25ATM] = 99
	*c.Lat = 0

	assert.Equal(t, 10.0, r.Values[ColPM25ATM])
	assert.Equal(t, 33.7, *r.Lat)
}

func TestIsReference(t *testing.T) {
	assert.True(t, Row{Sensor: "LKE" + RefSuffix}.IsReference())
	assert.False(t, Row{Sensor: "A1"}.IsReference())
}

func TestSortRows(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Sensor: "B2", Time: t0},
		{Sensor: "A1", Time: t0.Add(time.Hour)},
		{Sensor: "A1", Time: t0},
	}

	SortRows(rows)
	assert.Equal(t, "A1", rows[0].Sensor)
	assert.Equal(t, t0, rows[0].Time)
	assert.Equal(t, "A1", rows[1].Sensor)
	assert.Equal(t, "B2", rows[2].Sensor)
}

func TestRangeOf(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := RangeOf(nil)
		assert.False(t, ok)
	})

	t.Run("bounds align to the hour", func(t *testing.T) {
		rows := []Row{
			{Sensor: "A1", Time: time.Date(2020, 1, 1, 8, 17, 0, 0, time.UTC)},
			{Sensor: "A1", Time: time.Date(2020, 1, 2, 13, 42, 0, 0, time.UTC)},
		}

		r, ok := RangeOf(rows)
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC), r.Min)
		assert.Equal(t, time.Date(2020, 1, 2, 14, 0, 0, 0, time.UTC), r.Max)

		assert.True(t, r.Contains(r.Min))
		assert.True(t, r.Contains(r.Max))
		assert.False(t, r.Contains(r.Min.Add(-time.Second)))
		assert.False(t, r.Contains(r.Max.Add(time.Second)))
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "primary_a", PrimaryA.String())
	assert.Equal(t, "secondary_b", SecondaryB.String())
}
