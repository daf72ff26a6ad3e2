// Package middleware provides Fiber middleware for logging, viewer selection, rate limiting and tracing.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ViewerHeader selects which user the request acts as. It is a selector, not
// authentication.
const ViewerHeader = "X-Viewer-ID"

// ViewerLocal is the Fiber locals key holding the resolved viewer ID.
const ViewerLocal = "viewerID"

// Viewer resolves the acting viewer from ViewerHeader (or the "viewer" query
// parameter, for websocket clients) and falls back to defaultID.
func Viewer(defaultID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(ViewerHeader))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("viewer"))
		}
		if raw == "" {
			c.Locals(ViewerLocal, defaultID)
			return c.Next()
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid " + ViewerHeader,
			})
		}
		c.Locals(ViewerLocal, uint(id))
		return c.Next()
	}
}

// ViewerID returns the viewer resolved by Viewer, or 0 when absent.
func ViewerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(ViewerLocal).(uint)
	return id
}
