// Package source classifies each sensor as upwind or downwind of a fixed
// coordinate using great-circle bearing and distance.
package source

import (
	"math"
	"time"

	"pasc/pkg/contracts/domain"
)

// earthRadiusMiles keeps distances in miles to match the rest of the
// report. Use 6372.8 for kilometers.
const earthRadiusMiles = 3959.87433

// sectorHalfWidth is the half-angle of the downwind sector around the
// reversed wind vector.
const sectorHalfWidth = 22.5

// Coordinate is the fixed point sensors are classified against.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Attribution is one sensor observation's relation to the source point.
type Attribution struct {
	Sensor        string
	Time          time.Time
	Lat           float64
	Lon           float64
	DistanceMiles float64
	BearingDeg    float64
	WindVector    float64 // wind direction reversed, the way the air moves
	WindSpeed     float64
	Side          string // "upwind" or "downwind"
}

// Analyze computes bearing, distance and wind side for every summary row
// that carries coordinates and a wind direction. Rows without either are
// skipped; the report only makes claims it has the data for.
func Analyze(rows []domain.Row, src Coordinate) []Attribution {
	out := make([]Attribution, 0, len(rows))
	for _, row := range rows {
		if row.Lat == nil || row.Lon == nil {
			continue
		}
		dir, ok := row.Value(domain.ColWindDirection)
		if !ok {
			continue
		}
		speed, _ := row.Value(domain.ColWindSpeed)

		lat, lon := *row.Lat, *row.Lon
		bearing := InitialBearing(lat, lon, src.Lat, src.Lon)
		vector := math.Mod(dir+180, 360)

		out = append(out, Attribution{
			Sensor:        row.Sensor,
			Time:          row.Time,
			Lat:           lat,
			Lon:           lon,
			DistanceMiles: HaversineMiles(lat, lon, src.Lat, src.Lon),
			BearingDeg:    bearing,
			WindVector:    vector,
			WindSpeed:     speed,
			Side:          classify(bearing, vector),
		})
	}
	return out
}

func classify(bearing, vector float64) string {
	lo := math.Mod(vector-sectorHalfWidth+360, 360)
	hi := math.Mod(vector+sectorHalfWidth, 360)
	if lo <= hi {
		if bearing >= lo && bearing <= hi {
			return "downwind"
		}
	} else if bearing >= lo || bearing <= hi {
		// sector wraps through north
		return "downwind"
	}
	return "upwind"
}

// HaversineMiles returns the great-circle distance between two points,
// rounded to two decimals.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	rLat1 := radians(lat1)
	rLat2 := radians(lat2)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))
	return round2(earthRadiusMiles * c)
}

// InitialBearing returns the forward azimuth from point 1 to point 2,
// normalized into [0, 360), rounded to two decimals.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := radians(lon2 - lon1)
	rLat1 := radians(lat1)
	rLat2 := radians(lat2)

	y := math.Sin(dLon) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) - math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLon)
	return round2(math.Mod(degrees(math.Atan2(y, x))+180, 360))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
