// Package aqi computes a rolling-window air-quality index from fine
// particulate concentrations. The breakpoint table matches the standard
// PM2.5 categories but the trailing 24-hour rolling mean is bespoke to this
// tool; it is not an official regulatory methodology.
package aqi

import (
	"math"
	"sort"
	"time"

	"pasc/pkg/contracts/domain"
)

// Window is the trailing averaging window, keyed by elapsed time rather
// than row count so irregular gaps do not shrink the sample.
const Window = 24 * time.Hour

// Breakpoint is one category of the piecewise-linear index transform.
type Breakpoint struct {
	Category string
	ILow     float64
	IHigh    float64
	CLow     float64
	CHigh    float64
}

// breakpoints in ascending concentration order. The final "beyond" entry
// reuses the hazardous bounds and catches concentrations past the top of
// the table.
var breakpoints = []Breakpoint{
	{Category: "good", ILow: 0, IHigh: 50, CLow: 0, CHigh: 12},
	{Category: "moderate", ILow: 51, IHigh: 100, CLow: 12.1, CHigh: 35.4},
	{Category: "sensitive", ILow: 101, IHigh: 150, CLow: 35.5, CHigh: 55.4},
	{Category: "unhealthy", ILow: 151, IHigh: 200, CLow: 55.5, CHigh: 150.4},
	{Category: "very", ILow: 201, IHigh: 300, CLow: 150.5, CHigh: 250.4},
	{Category: "hazardous", ILow: 301, IHigh: 500, CLow: 250.5, CHigh: 500.4},
	{Category: "beyond", ILow: 301, IHigh: 500, CLow: 250.5, CHigh: 500.4},
}

// FromConcentration maps a 24h-mean concentration to the integer index.
// The input is truncated (not rounded) to one decimal and negative values
// clamp to zero, so a concentration always lands in exactly one category.
func FromConcentration(conc float64) int {
	c := math.Trunc(conc*10) / 10
	if c < 0 {
		c = 0
	}

	bp := breakpoints[len(breakpoints)-1] // beyond
	if c < 500.5 {
		for _, b := range breakpoints[:len(breakpoints)-1] {
			if c >= b.CLow && c <= b.CHigh {
				bp = b
				break
			}
		}
	}

	index := (bp.IHigh-bp.ILow)/(bp.CHigh-bp.CLow)*(c-bp.CLow) + bp.ILow
	return int(math.Round(index))
}

// Category names the breakpoint category a concentration falls in, after
// the same truncate-and-clamp treatment as FromConcentration.
func Category(conc float64) string {
	c := math.Trunc(conc*10) / 10
	if c < 0 {
		c = 0
	}
	if c >= 500.5 {
		return "beyond"
	}
	for _, b := range breakpoints[:len(breakpoints)-1] {
		if c >= b.CLow && c <= b.CHigh {
			return b.Category
		}
	}
	return "beyond"
}

// Apply computes the rolling index for every row and stores it under
// domain.ColAQI. Rows are processed per sensor in time order; the window at
// time t averages every PM2.5 ATM reading of that sensor in (t-Window, t].
// Rows without any reading in the window are left without an index value;
// output formatting fills those with zero.
func Apply(rows []domain.Row) {
	bySensor := make(map[string][]int)
	for i, row := range rows {
		bySensor[row.Sensor] = append(bySensor[row.Sensor], i)
	}

	for _, idxs := range bySensor {
		sort.SliceStable(idxs, func(a, b int) bool {
			return rows[idxs[a]].Time.Before(rows[idxs[b]].Time)
		})

		var (
			sum   float64
			count int
			start int
		)
		window := make([]int, 0, len(idxs)) // indices with a PM2.5 reading
		for _, i := range idxs {
			t := rows[i].Time
			if v, ok := rows[i].Value(domain.ColPM25ATM); ok {
				window = append(window, i)
				sum += v
				count++
			}
			cutoff := t.Add(-Window)
			for start < len(window) && !rows[window[start]].Time.After(cutoff) {
				v, _ := rows[window[start]].Value(domain.ColPM25ATM)
				sum -= v
				count--
				start++
			}
			if count > 0 {
				rows[i].Values[domain.ColAQI] = float64(FromConcentration(sum / float64(count)))
			}
		}
	}
}
