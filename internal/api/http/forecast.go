package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/store"
)

func (h *Handler) forecastForm(c *fiber.Ctx) error {
	return h.render(c, "forecast", nil)
}

func (h *Handler) forecastPage(c *fiber.Ctx) error {
	place := c.FormValue("place")

	report, err := h.forecast.Forecast(c.UserContext(), place)
	if err != nil {
		if !recoverable(err) {
			return err
		}
		addFlash(c, levelOf(err), apperr.Message(err, "The forecast is not available right now."))
		return h.render(c, "forecast", fiber.Map{"Place": place})
	}

	if report.ChartURL == "" {
		addFlash(c, levelWarning, "The wave chart could not be drawn, the numbers below are still current.")
	}
	return h.render(c, "forecast_result", fiber.Map{
		"Place":  place,
		"Report": report,
	})
}

// chart serves an image from the in-memory store. Ids are content hashes,
// so responses never change.
func (h *Handler) chart(c *fiber.Ctx) error {
	img, err := h.charts.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "chart not found")
		}
		return err
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(img.Data)
}
