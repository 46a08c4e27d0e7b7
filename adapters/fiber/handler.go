package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/neuralbroker/tiergate"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type simulateInput struct {
	NewTier string `json:"new_tier"`
}

// handleLogin exchanges credentials with the backend and starts tier
// monitoring for the signed-in user.
func handleLogin(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input loginInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		session, err := gate.SignIn(c.Context(), input.Email, input.Password)
		if err != nil {
			return handleGateError(c, err)
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"session": session,
			"token":   session.Token,
			"tier":    gate.Tier.Data(),
		})
	}
}

func handleLogout(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := gate.SignOut(c.Context()); err != nil {
			return handleGateError(c, err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "signed out successfully",
		})
	}
}

// handleSession reports the authentication state. Public: the
// dashboard shell polls this before deciding which views to mount.
func handleSession(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"loading": gate.Session.Loading(),
			"session": gate.Session.Snapshot(),
		})
	}
}

func handleTier(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		data := gate.Tier.Data()
		if data == nil {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": tiergate.ErrMonitorNotActive.Error(),
			})
		}
		return c.Status(http.StatusOK).JSON(data)
	}
}

func handleFeature(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		name := c.Params("name")
		return c.Status(http.StatusOK).JSON(gate.Tier.Access(name))
	}
}

func handleRefresh(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		data, err := gate.Tier.Refresh(c.Context())
		if err != nil {
			return handleGateError(c, err)
		}
		return c.Status(http.StatusOK).JSON(data)
	}
}

func handleSimulate(gate *tiergate.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input simulateInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		data, err := gate.Tier.SimulateTier(c.Context(), tiergate.Tier(input.NewTier))
		if err != nil {
			return handleGateError(c, err)
		}
		return c.Status(http.StatusOK).JSON(data)
	}
}

func handleGateError(c fiber.Ctx, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, tiergate.ErrEmailRequired),
		errors.Is(err, tiergate.ErrPasswordRequired),
		errors.Is(err, tiergate.ErrUserIDRequired):
		status = http.StatusBadRequest
	case errors.Is(err, tiergate.ErrTokenRequired),
		errors.Is(err, tiergate.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, tiergate.ErrMonitorNotActive),
		errors.Is(err, tiergate.ErrMonitorActive):
		status = http.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
