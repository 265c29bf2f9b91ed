package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasc/pkg/contracts/domain"
)

func TestResample(t *testing.T) {
	rows := []domain.Row{
		row("A1", at(5, 0), map[string]float64{domain.ColPM25ATM: 10}),
		row("A1", at(25, 0), map[string]float64{domain.ColPM25ATM: 20}),
		row("A1", at(65, 0), map[string]float64{domain.ColPM25ATM: 30}),
	}

	out := Resample(rows, time.Hour)
	require.Len(t, out, 2)

	v, _ := out[0].Value(domain.ColPM25ATM)
	assert.Equal(t, 15.0, v)
	v, _ = out[1].Value(domain.ColPM25ATM)
	assert.Equal(t, 30.0, v)
}

func TestFilterSummary(t *testing.T) {
	r := DefaultConcentrationRange()
	rows := []domain.Row{
		row("A1", at(0, 0), map[string]float64{domain.ColPM25ATM: 10}),
		row("A1", at(5, 0), map[string]float64{domain.ColTemp: 68}),        // no reading
		row("A1", at(10, 0), map[string]float64{domain.ColPM25ATM: 1200}), // out of range
		row("A1", at(15, 0), map[string]float64{domain.ColPM25ATM: -3}),   // out of range
		row("A1", at(20, 0), map[string]float64{domain.ColPM25ATM: 0}),    // boundary stays
	}

	out := FilterSummary(rows, r)
	require.Len(t, out, 2)
	assert.Equal(t, at(0, 0), out[0].Time)
	assert.Equal(t, at(20, 0), out[1].Time)
}
