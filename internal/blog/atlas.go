package blog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/chart"
	"github.com/i474232898/surfspots/internal/countries"
	"github.com/i474232898/surfspots/internal/observability"
)

// ImageStore keeps a rendered image and returns the URL that serves it.
type ImageStore interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}

// AtlasView is everything the best-spots page shows.
type AtlasView struct {
	Posts      []BlogPost
	Aggregates []countries.CountryAggregate
	// Unmatched lists country names with no registry entry; they are
	// left off the map.
	Unmatched []string
	MapURL    string
}

// Atlas aggregates spots per country and renders them on a world map.
type Atlas struct {
	repo     *Repository
	registry *countries.Registry
	images   ImageStore
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func NewAtlas(repo *Repository, registry *countries.Registry, images ImageStore, logger zerolog.Logger, metrics *observability.Metrics) *Atlas {
	return &Atlas{
		repo:     repo,
		registry: registry,
		images:   images,
		logger:   logger,
		metrics:  metrics,
	}
}

// Build loads the listing and aggregates and renders the map. When only
// the map fails, the view is returned together with an Upstream error.
func (a *Atlas) Build(ctx context.Context) (*AtlasView, error) {
	posts, err := a.repo.ListPosts(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	names := make([]string, len(posts))
	for i, p := range posts {
		names[i] = p.Country
	}

	view := &AtlasView{Posts: posts, Aggregates: a.registry.Aggregate(names)}

	points := make([]chart.MapPoint, 0, len(view.Aggregates))
	for _, agg := range view.Aggregates {
		c, ok := a.registry.ByCode(agg.Code)
		if !agg.Known() || !ok {
			view.Unmatched = append(view.Unmatched, agg.Country)
			continue
		}
		points = append(points, chart.MapPoint{Label: c.Alpha3, Lat: c.Lat, Lon: c.Lon, Count: agg.Count})
	}
	if len(view.Unmatched) > 0 {
		a.logger.Warn().Strs("countries", view.Unmatched).Msg("countries missing from registry")
	}

	png, err := chart.WorldMap("Best surf spots per country", points)
	if err != nil {
		a.logger.Error().Err(err).Msg("world map render failed")
		return view, apperr.E(apperr.Upstream, "The world map could not be drawn right now.", err)
	}
	a.metrics.ImagesRendered.WithLabelValues("worldmap").Inc()

	url, err := a.images.Put(ctx, "image/png", png)
	if err != nil {
		a.logger.Error().Err(err).Msg("storing world map failed")
		return view, apperr.E(apperr.Upstream, "The world map could not be stored right now.", err)
	}
	view.MapURL = url
	return view, nil
}
