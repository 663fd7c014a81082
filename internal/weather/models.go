package weather

import (
	"encoding/json"
	"time"
)

// Coordinates is a resolved point on the globe.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"` // display name reported by the geocoder
}

// Window is the half-open time range requested from the weather API.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow returns the window covering the calendar day of now in loc.
func DayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Second)}
}

// RawHour is one element of the upstream "hours" array: measurement name
// to a JSON object keyed by data source.
type RawHour map[string]json.RawMessage

// HourlyObservation is one flattened hour of marine and weather data.
type HourlyObservation struct {
	Time             time.Time `json:"time"`
	AirTemp          float64   `json:"airTemp"`
	WaterTemp        float64   `json:"waterTemp"`
	CurrentDirection float64   `json:"currentDirection"`
	CurrentSpeed     float64   `json:"currentSpeed"`
	SeaLevel         float64   `json:"seaLevel"`
	SwellHeight      float64   `json:"swellHeight"`
	WaveDirection    float64   `json:"waveDirection"`
	WaveHeight       float64   `json:"waveHeight"`
	WavePeriod       float64   `json:"wavePeriod"`
	WindDirection    float64   `json:"windDirection"`
	WindSpeed        float64   `json:"windSpeed"`
}

// Derived holds the series computed from a day of observations.
type Derived struct {
	// Differential is wave height minus swell height, per hour.
	Differential  []float64
	Hours         []int
	MeanWaterTemp float64
	// AirTempAtNoon has one entry per row whose hour is 12.
	AirTempAtNoon []float64
	CurrentHour   int
}

// Report is what a forecast request hands back to the page.
type Report struct {
	Place        Coordinates
	Day          time.Time
	Observations []HourlyObservation
	Derived      Derived
	ChartURL     string
}
