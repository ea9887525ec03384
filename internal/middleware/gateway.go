// Package middleware holds the HTTP middleware for inbound requests.
package middleware

import (
	"crypto/subtle"

	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// GatewayKey rejects requests that do not carry the shared gateway key.
// The service sits behind the API gateway; every inbound caller except
// Stripe authenticates this way.
func GatewayKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("x-api-key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return utils.Unauthorized(c, "invalid api key")
		}
		return c.Next()
	}
}
