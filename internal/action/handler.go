package action

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the SMS relay webhook.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler builds the webhook handler.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

type inboundForm struct {
	Content string `form:"content"`
	Sender  string `form:"sender"`
}

// Inbound accepts a form-encoded relay callback and answers with the
// workflow's status code and message as plain text.
func (h *Handler) Inbound(c *fiber.Ctx) error {
	var form inboundForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(http.StatusNotFound).SendString("Invalid data")
	}

	result := h.dispatcher.Handle(c.UserContext(), Inbound{Content: form.Content, Sender: form.Sender})
	return c.Status(result.Status).SendString(result.Message)
}
