package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/epaisa/epaisa_sms/internal/cbdc"
)

// RegisterCBDCRoutes exposes read-only sandbox lookups.
func RegisterCBDCRoutes(r fiber.Router, h *cbdc.Handler) {
	g := r.Group("/cbdc")
	g.Get("/banks", h.Banks)
	g.Get("/banks/:bankId/customers/:customerId", h.Customer)
	g.Get("/banks/:bankId/customers/:customerId/wallets/:address", h.Wallet)
}
