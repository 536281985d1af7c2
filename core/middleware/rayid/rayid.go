package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName carries the request id in and out.
const HeaderName = "X-Ray-ID"

// LocalsKey is where handlers find the id (see logger.WithRayID).
const LocalsKey = "ray_id"

// New returns middleware that tags every request with a ray id.
// An id supplied by the caller is kept.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalsKey, rid)
		c.Set(HeaderName, rid)
		return c.Next()
	}
}
