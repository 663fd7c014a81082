package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
)

const (
	keyUserID = "uid"
	keyFlash  = "flash"

	localSession = "session"
	localUser    = "user"
)

// Flash levels.
const (
	levelInfo    = "info"
	levelWarning = "warning"
	levelError   = "error"
)

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// withSession loads the session and the logged-in user for page routes and
// saves the session after the handler ran.
func (h *Handler) withSession(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	c.Locals(localSession, sess)

	if id, ok := sess.Get(keyUserID).(uint); ok {
		u, err := h.blog.User(c.UserContext(), id)
		switch {
		case err == nil:
			c.Locals(localUser, u)
		case apperr.KindOf(err) == apperr.NotFound:
			sess.Delete(keyUserID)
		default:
			return err
		}
	}

	err = c.Next()

	if sess.Fresh() && len(sess.Keys()) == 0 {
		return err
	}
	if saveErr := sess.Save(); saveErr != nil && err == nil {
		err = saveErr
	}
	return err
}

func sessionOf(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

func currentUser(c *fiber.Ctx) *blog.User {
	u, _ := c.Locals(localUser).(*blog.User)
	return u
}

func logIn(c *fiber.Ctx, u *blog.User) error {
	sess := sessionOf(c)
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyUserID, u.ID)
	c.Locals(localUser, u)
	return nil
}

func logOut(c *fiber.Ctx) error {
	sess := sessionOf(c)
	sess.Delete(keyUserID)
	c.Locals(localUser, nil)
	return sess.Regenerate()
}

func addFlash(c *fiber.Ctx, level, msg string) {
	sess := sessionOf(c)
	if sess == nil {
		return
	}
	prev, _ := sess.Get(keyFlash).(string)
	sess.Set(keyFlash, prev+level+"|"+msg+"\n")
}

func popFlashes(c *fiber.Ctx) []Flash {
	sess := sessionOf(c)
	if sess == nil {
		return nil
	}
	raw, _ := sess.Get(keyFlash).(string)
	if raw == "" {
		return nil
	}
	sess.Delete(keyFlash)

	var out []Flash
	for _, line := range strings.Split(strings.TrimSuffix(raw, "\n"), "\n") {
		level, msg, ok := strings.Cut(line, "|")
		if !ok {
			level, msg = levelInfo, line
		}
		out = append(out, Flash{Level: level, Message: msg})
	}
	return out
}
