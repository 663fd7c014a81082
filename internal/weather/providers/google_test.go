package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/surfspots/internal/weather"
)

func TestGoogleGeocode(t *testing.T) {
	var gotCity, gotKey string
	g := NewGoogleGeocoder("maps-key")
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		gotCity = a.City
		gotKey = geocoder.ApiKey
		return geocoder.Location{Latitude: 39.35, Longitude: -9.38}, nil
	}

	coords, err := g.Geocode(context.Background(), "Peniche")
	require.NoError(t, err)

	assert.Equal(t, weather.Coordinates{Lat: 39.35, Lon: -9.38, Name: "Peniche"}, coords)
	assert.Equal(t, "Peniche", gotCity)
	assert.Equal(t, "maps-key", gotKey)
	assert.Equal(t, "google", g.Name())
}

func TestGoogleGeocodeNotFound(t *testing.T) {
	tests := []struct {
		name string
		loc  geocoder.Location
		err  error
	}{
		{name: "zero results", err: errors.New("ZERO_RESULTS")},
		{name: "empty location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGoogleGeocoder("k")
			g.lookup = func(geocoder.Address) (geocoder.Location, error) { return tt.loc, tt.err }

			_, err := g.Geocode(context.Background(), "Atlantis")
			assert.ErrorIs(t, err, weather.ErrPlaceNotFound)
		})
	}
}

func TestGoogleGeocodeUpstreamError(t *testing.T) {
	g := NewGoogleGeocoder("k")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}

	_, err := g.Geocode(context.Background(), "Peniche")
	require.Error(t, err)
	assert.NotErrorIs(t, err, weather.ErrPlaceNotFound)
}

func TestGoogleGeocodeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := NewGoogleGeocoder("k")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Geocode(ctx, "Peniche")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
