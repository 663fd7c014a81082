package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/surfspots/internal/weather"
)

// StormglassProvider implements weather.PointProvider for the Stormglass
// weather point API.
type StormglassProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewStormglassProvider(client *http.Client, baseURL, apiKey string) *StormglassProvider {
	return &StormglassProvider{
		name:    "stormglass",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("stormglass"),
	}
}

func (p *StormglassProvider) Name() string {
	return p.name
}

// FetchHours returns the raw "hours" array for the point and window.
func (p *StormglassProvider) FetchHours(ctx context.Context, at weather.Coordinates, w weather.Window) ([]weather.RawHour, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("stormglass api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(at.Lat, 'f', 6, 64))
		values.Set("lng", strconv.FormatFloat(at.Lon, 'f', 6, 64))
		values.Set("params", strings.Join(weather.Params, ","))
		values.Set("start", strconv.FormatInt(w.Start.UTC().Unix(), 10))
		values.Set("end", strconv.FormatInt(w.End.UTC().Unix(), 10))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", p.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hours []weather.RawHour `json:"hours"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode stormglass response: %w", err)
	}
	return payload.Hours, nil
}
