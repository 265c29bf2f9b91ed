package domain

// Station describes one fixed regulatory reference station from the static
// station table (pasc_ref_stations.csv).
type Station struct {
	SensorName     string
	SiteName       string
	AQSNo          string
	ARBNo          string
	Lat            float64
	Lon            float64
	ElevM          float64
	Address        string
	FilenameFormat string
}
