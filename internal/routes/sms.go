package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/epaisa/epaisa_sms/internal/action"
)

// RegisterSMSRoutes wires the relay webhook. The bare root path is kept for
// relays configured before the versioned path existed.
func RegisterSMSRoutes(app *fiber.App, api fiber.Router, h *action.Handler, limiter fiber.Handler) {
	app.Post("/", limiter, h.Inbound)
	api.Post("/sms/inbound", limiter, h.Inbound)
}
