package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/neuralbroker/tiergate"
)

// RequireAuth validates the bearer token against the gate's session
// and stores the session snapshot in the context for downstream
// handlers. Unauthenticated requests get a 401 carrying the requested
// path so the dashboard can redirect back after login.
func RequireAuth(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractToken(c)
		if token == "" || !gate.Session.VerifyToken(token) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":       tiergate.ErrInvalidToken.Error(),
				"redirect_to": c.OriginalURL(),
			})
		}

		c.Locals("session", gate.Session.Snapshot())
		return c.Next()
	}
}

// RequireFeature blocks the request when the named feature is locked,
// answering with the tier-appropriate upgrade message instead of a
// hard error.
func RequireFeature(gate *tiergate.Gate, feature string) fiber.Handler {
	return func(c fiber.Ctx) error {
		access := gate.Tier.Access(feature)
		if access.Locked {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":           "feature locked",
				"feature":         feature,
				"upgrade_message": access.UpgradeMessage,
			})
		}

		c.Locals("feature_access", access)
		return c.Next()
	}
}

func extractToken(c fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
