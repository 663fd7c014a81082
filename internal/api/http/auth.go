package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
)

const featuredSpots = 2

type authForm struct {
	Form     string `form:"form"`
	Name     string `form:"name"`
	Password string `form:"password"`
}

func (h *Handler) index(c *fiber.Ctx) error {
	featured, err := h.blog.Featured(c.UserContext(), featuredSpots)
	if err != nil {
		return err
	}
	return h.render(c, "index", fiber.Map{"Featured": featured})
}

// authenticate handles both landing page forms, told apart by the "form"
// field.
func (h *Handler) authenticate(c *fiber.Ctx) error {
	var f authForm
	if err := c.BodyParser(&f); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}

	var (
		u   *blog.User
		err error
	)
	switch f.Form {
	case "register":
		u, err = h.blog.Register(c.UserContext(), f.Name, f.Password)
	case "login":
		u, err = h.blog.Login(c.UserContext(), f.Name, f.Password)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown form")
	}

	if err != nil {
		if !recoverable(err) {
			return err
		}
		addFlash(c, levelOf(err), apperr.Message(err, "Please try again."))
		return c.Redirect("/")
	}

	if err := logIn(c, u); err != nil {
		return err
	}
	if f.Form == "register" {
		addFlash(c, levelInfo, blog.MsgRegistered)
	}
	return c.Redirect("/")
}

func (h *Handler) logout(c *fiber.Ctx) error {
	if err := logOut(c); err != nil {
		return err
	}
	return c.Redirect("/")
}
