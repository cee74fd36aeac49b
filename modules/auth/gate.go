package auth

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the locals key under which the gate stores the resolved
// identity. The websocket handler reads it back via conn.Locals.
const IdentityKey = "identity"

// IdleConnCloser force-closes idle pooled connections. The gate calls it
// before authenticating so a forked worker never reuses a stale database
// connection inherited from its parent process.
type IdleConnCloser interface {
	CloseIdleConnections()
}

// ConnectionGate returns the middleware guarding the websocket routes. It
// requires a websocket upgrade, verifies the bearer token from the `token`
// query parameter and attaches the identity to the request locals.
//
// Verification failure does not reject the connection: the transport accept
// is cheap and always succeeds, and the session layer decides whether to
// close immediately afterwards. Rejecting here would leave the client with a
// bare handshake failure instead of a protocol-level close code.
func ConnectionGate(verifier *Verifier, idle IdleConnCloser) fiber.Handler {
	logger := slog.Default().With("component", "gate")

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		if idle != nil {
			idle.CloseIdleConnections()
		}

		token := c.Query("token")
		if token == "" {
			return c.Next()
		}

		id, err := verifier.Verify(token)
		if err != nil {
			logger.Warn("token verification failed", "path", c.Path(), "error", err)
			return c.Next()
		}

		c.Locals(IdentityKey, id)
		return c.Next()
	}
}
