package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the site.
type Metrics struct {
	// labels: outcome={success,not_found,missing_data,upstream_error}
	ForecastRequests *prometheus.CounterVec
	ForecastDuration prometheus.Histogram

	// labels: result={hit,miss}
	GeocodeCache *prometheus.CounterVec

	// labels: outcome={success,error}
	ScrapeRefreshes *prometheus.CounterVec
	ScrapeAge       prometheus.Gauge

	// labels: kind={forecast,worldmap}
	ImagesRendered *prometheus.CounterVec
	ImagesStored   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastRequests,
		m.ForecastDuration,
		m.GeocodeCache,
		m.ScrapeRefreshes,
		m.ScrapeAge,
		m.ImagesRendered,
		m.ImagesStored,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfspots",
			Name:      "forecast_requests_total",
			Help:      "Forecast lookups by outcome.",
		}, []string{"outcome"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surfspots",
			Name:      "forecast_duration_seconds",
			Help:      "Duration of a complete geocode, fetch and render cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfspots",
			Name:      "geocode_cache_total",
			Help:      "Geocoder cache lookups by result.",
		}, []string{"result"}),
		ScrapeRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfspots",
			Name:      "scrape_refreshes_total",
			Help:      "News page refreshes by outcome.",
		}, []string{"outcome"}),
		ScrapeAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surfspots",
			Name:      "scrape_age_seconds",
			Help:      "Age of the cached news snapshot at the last read.",
		}),
		ImagesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surfspots",
			Name:      "images_rendered_total",
			Help:      "Rendered chart images by kind.",
		}, []string{"kind"}),
		ImagesStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surfspots",
			Name:      "images_stored",
			Help:      "Images currently held by the in-memory image store.",
		}),
	}
}
