package cbdc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes read-only sandbox lookups.
type Handler struct {
	client *Client
}

// NewHandler constructs a sandbox handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Banks lists the sandbox banks.
func (h *Handler) Banks(c *fiber.Ctx) error {
	raw, err := h.client.Banks(c.UserContext())
	return respond(c, raw, err)
}

// Customer returns one sandbox customer.
func (h *Handler) Customer(c *fiber.Ctx) error {
	raw, err := h.client.Customer(c.UserContext(), c.Params("bankId"), c.Params("customerId"))
	return respond(c, raw, err)
}

// Wallet returns one sandbox wallet.
func (h *Handler) Wallet(c *fiber.Ctx) error {
	raw, err := h.client.Wallet(c.UserContext(), c.Params("bankId"), c.Params("customerId"), c.Params("address"))
	return respond(c, raw, err)
}

func respond(c *fiber.Ctx, raw json.RawMessage, err error) error {
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fiber.NewError(apiErr.Status, apiErr.Body)
		}
		return fiber.NewError(http.StatusBadGateway, "cbdc sandbox unavailable")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(http.StatusOK).Send(raw)
}
