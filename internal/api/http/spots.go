package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
)

func (h *Handler) bestSpots(c *fiber.Ctx) error {
	view, err := h.atlas.Build(c.UserContext())
	if err != nil {
		if view == nil || apperr.KindOf(err) != apperr.Upstream {
			return err
		}
		addFlash(c, levelWarning, apperr.Message(err, "Something went wrong"))
	}
	if len(view.Unmatched) > 0 {
		addFlash(c, levelWarning, fmt.Sprintf("%d country name(s) are not on the map.", len(view.Unmatched)))
	}

	return h.render(c, "best_spots", fiber.Map{
		"Posts":      view.Posts,
		"Aggregates": view.Aggregates,
		"Unmatched":  view.Unmatched,
		"MapURL":     view.MapURL,
		"MapsAPIKey": h.mapsAPIKey,
	})
}

func requireManager(c *fiber.Ctx) error {
	if !blog.CanManageSpots(currentUser(c)) {
		return apperr.E(apperr.Forbidden, blog.MsgForbidden, nil)
	}
	return nil
}

func (h *Handler) newSpotForm(c *fiber.Ctx) error {
	if err := requireManager(c); err != nil {
		return err
	}
	return h.renderSpotForm(c, blog.SpotInput{}, "/new_spot", false)
}

func (h *Handler) createSpot(c *fiber.Ctx) error {
	if err := requireManager(c); err != nil {
		return err
	}

	var in blog.SpotInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}

	p, err := h.blog.CreateSpot(c.UserContext(), currentUser(c), in)
	if err != nil {
		if apperr.KindOf(err) != apperr.Validation {
			return err
		}
		addFlash(c, levelError, apperr.Message(err, "Please check the form."))
		c.Status(fiber.StatusUnprocessableEntity)
		return h.renderSpotForm(c, in, "/new_spot", false)
	}

	addFlash(c, levelInfo, fmt.Sprintf("%s was added.", p.NameBeach))
	return c.Redirect("/best_spots")
}

func (h *Handler) editSpotForm(c *fiber.Ctx) error {
	if err := requireManager(c); err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	p, err := h.blog.Spot(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.renderSpotForm(c, blog.InputFrom(*p), fmt.Sprintf("/edit_post/%d", id), true)
}

func (h *Handler) updateSpot(c *fiber.Ctx) error {
	if err := requireManager(c); err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var in blog.SpotInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}

	if _, err := h.blog.UpdateSpot(c.UserContext(), currentUser(c), id, in); err != nil {
		if apperr.KindOf(err) != apperr.Validation {
			return err
		}
		addFlash(c, levelError, apperr.Message(err, "Please check the form."))
		c.Status(fiber.StatusUnprocessableEntity)
		return h.renderSpotForm(c, in, fmt.Sprintf("/edit_post/%d", id), true)
	}

	addFlash(c, levelInfo, "The spot was updated.")
	return c.Redirect(fmt.Sprintf("/spot/%d", id))
}

func (h *Handler) deleteSpot(c *fiber.Ctx) error {
	if err := requireManager(c); err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.blog.DeleteSpot(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	addFlash(c, levelInfo, "The spot was deleted.")
	return c.Redirect("/best_spots")
}

func (h *Handler) spot(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p, err := h.blog.Spot(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.render(c, "spot", fiber.Map{
		"Spot":       p,
		"MapsAPIKey": h.mapsAPIKey,
	})
}

func (h *Handler) comment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	_, err = h.blog.AddComment(c.UserContext(), currentUser(c), id, c.FormValue("text"))
	if err != nil {
		if !recoverable(err) {
			return err
		}
		addFlash(c, levelOf(err), apperr.Message(err, "Your comment could not be saved."))
	}
	return c.Redirect(fmt.Sprintf("/spot/%d#comments", id), http.StatusSeeOther)
}

func (h *Handler) renderSpotForm(c *fiber.Ctx, in blog.SpotInput, action string, edit bool) error {
	return h.render(c, "spot_form", fiber.Map{
		"Form":   in,
		"Action": action,
		"IsEdit": edit,
	})
}
