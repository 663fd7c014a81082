package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
	"github.com/i474232898/surfspots/internal/countries"
	"github.com/i474232898/surfspots/internal/scrape"
	"github.com/i474232898/surfspots/internal/store"
	"github.com/i474232898/surfspots/internal/weather"
)

// Forecaster produces a wave forecast for a place name.
type Forecaster interface {
	Forecast(ctx context.Context, place string) (*weather.Report, error)
}

// NewsSource returns the cached surf news.
type NewsSource interface {
	Get(ctx context.Context) (scrape.View, error)
}

// ImageSource serves images kept in process memory.
type ImageSource interface {
	Get(id string) (store.Image, error)
}

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Blog     *blog.Service
	Atlas    *blog.Atlas
	Forecast Forecaster
	News     NewsSource
	// Charts is nil when images are served from object storage.
	Charts   ImageSource
	Sessions *session.Store
	Registry *countries.Registry

	Clock      clockwork.Clock
	Location   *time.Location
	MapsAPIKey string
	Logger     zerolog.Logger
}

// Handler holds the page and API handlers.
type Handler struct {
	blog       *blog.Service
	atlas      *blog.Atlas
	forecast   Forecaster
	news       NewsSource
	charts     ImageSource
	sessions   *session.Store
	registry   *countries.Registry
	clock      clockwork.Clock
	loc        *time.Location
	mapsAPIKey string
	logger     zerolog.Logger
}

func newHandler(d Deps) *Handler {
	h := &Handler{
		blog:       d.Blog,
		atlas:      d.Atlas,
		forecast:   d.Forecast,
		news:       d.News,
		charts:     d.Charts,
		sessions:   d.Sessions,
		registry:   d.Registry,
		clock:      d.Clock,
		loc:        d.Location,
		mapsAPIKey: d.MapsAPIKey,
		logger:     d.Logger,
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.sessions == nil {
		h.sessions = session.New()
	}
	if h.registry == nil {
		h.registry = countries.Default()
	}
	return h
}

// NewApp creates the Fiber app with the page views and the centralized
// error handler.
func NewApp(views *Views, logger zerolog.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "surfspots",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Views:                 views,
		ErrorHandler:          ErrorHandler(logger),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) error {
	h := newHandler(d)

	gql, err := newGraphQLHandler(h.blog, h.registry, h.logger)
	if err != nil {
		return err
	}

	// Routes without a session.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "surfspots",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/api/graphql", adaptor.HTTPHandler(gql))
	if h.charts != nil {
		app.Get("/charts/:id", h.chart)
	}

	app.Use(h.withSession)

	app.Get("/", h.index)
	app.Post("/", h.authenticate)
	app.Get("/logout", h.logout)

	app.Get("/about", h.static("about"))
	app.Get("/lifestyle", h.static("lifestyle"))
	app.Get("/flat_days", h.static("flat_days"))
	app.Get("/pro_tips", h.static("pro_tips"))
	app.Post("/pro_tips", h.static("pro_tips"))

	app.Get("/news", h.newsPage)
	app.Post("/news", h.newsPage)

	app.Get("/best_spots", h.bestSpots)
	app.Post("/best_spots", h.bestSpots)
	app.Get("/new_spot", h.newSpotForm)
	app.Post("/new_spot", h.createSpot)
	app.Get("/edit_post/:id", h.editSpotForm)
	app.Post("/edit_post/:id", h.updateSpot)
	app.Get("/delete/:id", h.deleteSpot)
	app.Post("/delete/:id", h.deleteSpot)
	app.Get("/spot/:id", h.spot)
	app.Post("/spot/:id/comment", h.comment)

	app.Get("/forecast", h.forecastForm)
	app.Post("/forecast", h.forecastPage)

	return nil
}

// ErrorHandler renders apperr kinds and fiber errors as status pages, or as
// JSON under /api.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, msg := statusOf(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": msg,
			})
		}

		c.Status(code)
		if rerr := c.Render("error", fiber.Map{
			"Status":  code,
			"Message": msg,
			"User":    currentUser(c),
		}); rerr != nil {
			return c.Status(code).SendString(msg)
		}
		return nil
	}
}

func statusOf(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch apperr.KindOf(err) {
	case apperr.Validation:
		return fiber.StatusBadRequest, apperr.Message(err, "The request was not valid.")
	case apperr.Unauthenticated:
		return fiber.StatusUnauthorized, apperr.Message(err, "Please log in first.")
	case apperr.Forbidden:
		return fiber.StatusForbidden, apperr.Message(err, "You are not allowed to do that.")
	case apperr.NotFound:
		return fiber.StatusNotFound, apperr.Message(err, "This page does not exist.")
	case apperr.Upstream:
		return fiber.StatusBadGateway, apperr.Message(err, "An external service is unavailable.")
	default:
		return fiber.StatusInternalServerError, "Something went wrong on our side."
	}
}

// render executes a page with the session user and pending flashes.
func (h *Handler) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	u := currentUser(c)
	data["User"] = u
	data["CanManage"] = blog.CanManageSpots(u)
	data["Flashes"] = popFlashes(c)
	data["Path"] = c.Path()
	return c.Render(name, data)
}

func (h *Handler) static(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.render(c, name, nil)
	}
}

// recoverable reports whether err should become a flash message instead of
// an error page.
func recoverable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.Validation, apperr.Unauthenticated, apperr.Upstream:
		return true
	}
	return false
}

func levelOf(err error) string {
	if apperr.KindOf(err) == apperr.Upstream {
		return levelWarning
	}
	return levelError
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, apperr.E(apperr.NotFound, "This spot does not exist.", err)
	}
	return uint(id), nil
}
