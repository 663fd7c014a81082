package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingField is returned when an hour lacks a measurement or the
	// data source selected for it.
	ErrMissingField = errors.New("missing field in weather data")
	// ErrPlaceNotFound is returned by geocoders for unknown place names.
	ErrPlaceNotFound = errors.New("place not found")
)

// Measurement names as they appear in the upstream payload.
const (
	AirTemperature   = "airTemperature"
	WaterTemperature = "waterTemperature"
	CurrentDirection = "currentDirection"
	CurrentSpeed     = "currentSpeed"
	SeaLevel         = "seaLevel"
	SwellHeight      = "swellHeight"
	WaveDirection    = "waveDirection"
	WaveHeight       = "waveHeight"
	WavePeriod       = "wavePeriod"
	WindDirection    = "windDirection"
	WindSpeed        = "windSpeed"
)

// Params lists every measurement requested from the provider.
var Params = []string{
	WindSpeed, WindDirection, AirTemperature, WaterTemperature, SeaLevel,
	SwellHeight, WaveDirection, WaveHeight, WavePeriod, CurrentDirection, CurrentSpeed,
}

// FieldSources selects which data source variant is read for each measurement.
type FieldSources map[string]string

// DefaultSources matches the variants the upstream service fills reliably.
var DefaultSources = FieldSources{
	AirTemperature:   "noaa",
	WaterTemperature: "noaa",
	CurrentDirection: "meto",
	CurrentSpeed:     "meto",
	SeaLevel:         "meto",
	SwellHeight:      "meteo",
	WaveDirection:    "meteo",
	WaveHeight:       "meteo",
	WavePeriod:       "meteo",
	WindDirection:    "noaa",
	WindSpeed:        "noaa",
}

// Normalize flattens the per-hour payload into one row per hour. The first
// missing key aborts the whole conversion; no partial rows are returned.
func Normalize(hours []RawHour, sources FieldSources) ([]HourlyObservation, error) {
	if sources == nil {
		sources = DefaultSources
	}

	rows := make([]HourlyObservation, 0, len(hours))
	for i, h := range hours {
		ts, err := hourTime(h)
		if err != nil {
			return nil, fmt.Errorf("hour %d: %w", i, err)
		}

		obs := HourlyObservation{Time: ts}
		targets := []struct {
			field string
			dst   *float64
		}{
			{AirTemperature, &obs.AirTemp},
			{WaterTemperature, &obs.WaterTemp},
			{CurrentDirection, &obs.CurrentDirection},
			{CurrentSpeed, &obs.CurrentSpeed},
			{SeaLevel, &obs.SeaLevel},
			{SwellHeight, &obs.SwellHeight},
			{WaveDirection, &obs.WaveDirection},
			{WaveHeight, &obs.WaveHeight},
			{WavePeriod, &obs.WavePeriod},
			{WindDirection, &obs.WindDirection},
			{WindSpeed, &obs.WindSpeed},
		}
		for _, tg := range targets {
			v, err := sourceValue(h, tg.field, sources[tg.field])
			if err != nil {
				return nil, fmt.Errorf("hour %d (%s): %w", i, ts.Format(time.RFC3339), err)
			}
			*tg.dst = v
		}
		rows = append(rows, obs)
	}
	return rows, nil
}

func hourTime(h RawHour) (time.Time, error) {
	raw, ok := h["time"]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: time", ErrMissingField)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("%w: time is not a string", ErrMissingField)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q: %v", ErrMissingField, s, err)
	}
	return ts, nil
}

func sourceValue(h RawHour, field, source string) (float64, error) {
	raw, ok := h[field]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	var bySource map[string]*float64
	if err := json.Unmarshal(raw, &bySource); err != nil {
		return 0, fmt.Errorf("%w: %s is not an object", ErrMissingField, field)
	}
	v, ok := bySource[source]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s.%s", ErrMissingField, field, source)
	}
	return *v, nil
}
