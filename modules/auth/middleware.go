package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// errorResponse is the JSON body returned on authentication failure.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RequireBearer guards the REST surface. Unlike the websocket gate it
// rejects outright: an HTTP caller gets a 401, there is no session layer to
// defer to.
func RequireBearer(verifier *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		id, err := verifier.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(IdentityKey, id)
		return c.Next()
	}
}
