package middleware

import "github.com/gofiber/fiber/v2"

// Noop passes straight through to the next handler. Auth returns it when no
// secret is configured so guarded routes always have a middleware in place.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
