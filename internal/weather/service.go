package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/observability"
)

// MsgNotCoastal is shown when the weather API has no marine data for a place.
const MsgNotCoastal = "Please choose a city that is located on a beach."

// Service orchestrates geocoding, fetching, normalizing and rendering a
// one-day wave forecast.
type Service struct {
	geocoder Geocoder
	provider PointProvider
	renderer ChartRenderer
	images   ImageStore
	sources  FieldSources
	loc      *time.Location
	clock    clockwork.Clock
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, used for the day window and current hour.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the zone for day windows and hour-of-day values.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithSources overrides the data-source variant read per measurement.
func WithSources(fs FieldSources) Option {
	return func(s *Service) { s.sources = fs }
}

// NewService creates a new Service.
func NewService(
	geocoder Geocoder,
	provider PointProvider,
	renderer ChartRenderer,
	images ImageStore,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	opts ...Option,
) *Service {
	s := &Service{
		geocoder: geocoder,
		provider: provider,
		renderer: renderer,
		images:   images,
		sources:  DefaultSources,
		loc:      time.Local,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast resolves place, fetches today's hourly data for it and renders
// the wave chart. Errors carry an apperr.Kind; a failed render is not an
// error and leaves Report.ChartURL empty.
func (s *Service) Forecast(ctx context.Context, place string) (*Report, error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ForecastDuration.Observe(s.clock.Since(start).Seconds())
	}()

	place = strings.TrimSpace(place)
	if place == "" {
		return nil, apperr.E(apperr.Validation, "Please enter the name of a beach or city.", nil)
	}

	coords, err := s.geocoder.Geocode(ctx, place)
	if err != nil {
		if errors.Is(err, ErrPlaceNotFound) {
			s.metrics.ForecastRequests.WithLabelValues("not_found").Inc()
			return nil, apperr.E(apperr.Validation, fmt.Sprintf("We could not find %q, please try another place.", place), err)
		}
		s.metrics.ForecastRequests.WithLabelValues("upstream_error").Inc()
		s.logger.Warn().Err(err).Str("geocoder", s.geocoder.Name()).Str("place", place).Msg("geocoding failed")
		return nil, apperr.E(apperr.Upstream, "The geocoding service is unavailable, please try again later.", err)
	}

	window := DayWindow(s.clock.Now(), s.loc)
	hours, err := s.provider.FetchHours(ctx, coords, window)
	if err != nil {
		s.metrics.ForecastRequests.WithLabelValues("upstream_error").Inc()
		s.logger.Warn().Err(err).Str("provider", s.provider.Name()).
			Float64("lat", coords.Lat).Float64("lon", coords.Lon).Msg("weather fetch failed")
		return nil, apperr.E(apperr.Upstream, "The forecast service is unavailable, please try again later.", err)
	}

	rows, err := Normalize(hours, s.sources)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("%w: no hours returned", ErrMissingField)
	}
	if err != nil {
		s.metrics.ForecastRequests.WithLabelValues("missing_data").Inc()
		s.logger.Info().Err(err).Str("place", place).Msg("incomplete marine data")
		return nil, apperr.E(apperr.Upstream, MsgNotCoastal, err)
	}

	derived := Derive(rows, s.loc, s.clock.Now())
	report := &Report{
		Place:        coords,
		Day:          window.Start,
		Observations: rows,
		Derived:      derived,
	}

	title := fmt.Sprintf("Wave Heights on %s at %s", window.Start.Format("2006-01-02"), coords.Name)
	png, err := s.renderer.RenderForecast(title, rows, derived)
	if err != nil {
		s.logger.Error().Err(err).Str("place", place).Msg("forecast chart render failed")
	} else {
		s.metrics.ImagesRendered.WithLabelValues("forecast").Inc()
		url, err := s.images.Put(ctx, "image/png", png)
		if err != nil {
			s.logger.Error().Err(err).Msg("storing forecast chart failed")
		}
		report.ChartURL = url
	}

	s.metrics.ForecastRequests.WithLabelValues("success").Inc()
	s.logger.Debug().Str("place", place).Int("hours", len(rows)).Str("chart", report.ChartURL).Msg("forecast served")
	return report, nil
}
