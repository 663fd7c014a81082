package weather

import (
	"context"
)

// Geocoder resolves a free-text place name to coordinates. Implementations
// return ErrPlaceNotFound when the name matches nothing.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, place string) (Coordinates, error)
}

// PointProvider abstracts an hourly weather-point data source (e.g. Stormglass).
type PointProvider interface {
	Name() string
	FetchHours(ctx context.Context, at Coordinates, w Window) ([]RawHour, error)
}

// ChartRenderer turns a day of observations into an encoded image.
type ChartRenderer interface {
	RenderForecast(title string, rows []HourlyObservation, d Derived) ([]byte, error)
}

// ImageStore keeps a rendered image and returns the URL that serves it.
type ImageStore interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}
