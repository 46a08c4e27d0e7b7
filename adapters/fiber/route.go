// Package fiber adapts a tiergate.Gate onto a fiber v3 application.
package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/neuralbroker/tiergate"
)

type Adapter struct {
	app *fiber.App
}

var _ tiergate.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

func (a *Adapter) RegisterRoutes(gate *tiergate.Gate) error {
	api := a.app.Group(gate.BasePath)

	// Public routes
	api.Post("/login", handleLogin(gate))
	api.Get("/session", handleSession(gate))

	// Protected routes
	auth := RequireAuth(gate)
	api.Post("/logout", auth, handleLogout(gate))
	api.Get("/tier", auth, handleTier(gate))
	api.Get("/features/:name", auth, handleFeature(gate))
	api.Post("/tier/refresh", auth, handleRefresh(gate))
	api.Post("/tier/simulate", auth, handleSimulate(gate))

	return nil
}
