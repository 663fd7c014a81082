package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/surfspots/internal/weather"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	nominatimUserAgent  = "SurfSpots/1.0"
)

// NominatimGeocoder resolves place names through an OpenStreetMap Nominatim
// instance. Calls are spaced at least minInterval apart as the public
// instance allows one request per second.
type NominatimGeocoder struct {
	baseURL     string
	cfg         HTTPClientConfig
	cb          *gobreaker.CircuitBreaker
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimGeocoder creates a geocoder against baseURL, or the public
// endpoint when baseURL is empty.
func NewNominatimGeocoder(client *http.Client, baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimGeocoder{
		baseURL:     strings.TrimRight(baseURL, "/"),
		cfg:         HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		cb:          newBreaker("nominatim"),
		minInterval: time.Second,
	}
}

func (g *NominatimGeocoder) Name() string {
	return "nominatim"
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, place string) (weather.Coordinates, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: empty query", weather.ErrPlaceNotFound)
	}

	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", "1")
	reqURL := g.baseURL + "?" + params.Encode()

	resp, err := doRequestWithResilience(ctx, g.cfg, g.cb, func(ctx context.Context) (*http.Request, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", nominatimUserAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return weather.Coordinates{}, fmt.Errorf("nominatim: decoding response: %w", err)
	}
	if len(results) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrPlaceNotFound, place)
	}

	r := results[0]
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lon, errLon := strconv.ParseFloat(r.Lon, 64)
	if err := errors.Join(errLat, errLon); err != nil {
		return weather.Coordinates{}, fmt.Errorf("nominatim: parsing coordinates: %w", err)
	}

	name := r.DisplayName
	if name == "" {
		name = place
	}
	return weather.Coordinates{Lat: lat, Lon: lon, Name: name}, nil
}

// wait reserves the next request slot, retries included, and blocks until
// it arrives or ctx is done.
func (g *NominatimGeocoder) wait(ctx context.Context) error {
	g.mu.Lock()
	slot := time.Now()
	if !g.lastCall.IsZero() {
		if next := g.lastCall.Add(g.minInterval); next.After(slot) {
			slot = next
		}
	}
	g.lastCall = slot
	g.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
