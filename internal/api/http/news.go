package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) newsPage(c *fiber.Ctx) error {
	view, err := h.news.Get(c.UserContext())
	switch {
	case err != nil:
		h.logger.Warn().Err(err).Msg("news unavailable")
		addFlash(c, levelWarning, "The surf news could not be loaded right now.")
	case view.Stale:
		addFlash(c, levelWarning, "The surf news could not be refreshed, showing the copy from "+
			view.FetchedAt.In(h.loc).Format("2006-01-02 15:04")+".")
	}

	return h.render(c, "news", fiber.Map{
		"Rankings": view.Rankings,
		"Events":   view.Events,
		"Today":    h.clock.Now().In(h.loc).Format("2006-01-02"),
	})
}
