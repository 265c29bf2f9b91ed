package aqi

import "pasc/pkg/contracts/domain"

// US-wide PurpleAir correction coefficients (Barkjohn et al.):
// PM2.5 = 0.524*CF1 - 0.0862*RH + 5.75, clamped at zero.
const (
	epaSlope     = 0.524
	epaHumidity  = 0.0862
	epaIntercept = 5.75
)

// ApplyEPACorrection derives the humidity-corrected PM2.5 estimate for
// every row carrying both a CF1 reading and humidity, storing it under
// domain.ColEPA. Reference pseudo-sensors are skipped: the correction is
// calibrated for the optical sensors, not regulatory monitors.
func ApplyEPACorrection(rows []domain.Row) {
	for i := range rows {
		if rows[i].IsReference() {
			continue
		}
		cf1, okC := rows[i].Value(domain.ColPM25CF1)
		rh, okH := rows[i].Value(domain.ColHumidity)
		if !okC || !okH {
			continue
		}
		v := epaSlope*cf1 - epaHumidity*rh + epaIntercept
		if v < 0 {
			v = 0
		}
		rows[i].Values[domain.ColEPA] = v
	}
}
