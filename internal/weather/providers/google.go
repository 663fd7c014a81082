package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/surfspots/internal/weather"
)

// geocoder.ApiKey is package global.
var googleMu sync.Mutex

// GoogleGeocoder resolves place names through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder creates a geocoder authenticated with apiKey.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, place string) (weather.Coordinates, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: empty query", weather.ErrPlaceNotFound)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		googleMu.Lock()
		defer googleMu.Unlock()
		geocoder.ApiKey = g.apiKey
		loc, err := g.lookup(geocoder.Address{City: place})
		done <- result{loc, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case r = <-done:
	}

	if r.err != nil {
		if isNoResults(r.err) {
			return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrPlaceNotFound, place)
		}
		return weather.Coordinates{}, fmt.Errorf("google geocoder: %w", r.err)
	}
	if r.loc.Latitude == 0 && r.loc.Longitude == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrPlaceNotFound, place)
	}

	return weather.Coordinates{Lat: r.loc.Latitude, Lon: r.loc.Longitude, Name: place}, nil
}

func isNoResults(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "zero_results") || strings.Contains(msg, "no results")
}
