package wallet

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/epaisa/epaisa_sms/internal/auth"
	"github.com/epaisa/epaisa_sms/internal/ledger"
	"github.com/epaisa/epaisa_sms/internal/notification"
)

// Encoder produces interaction-id chunks for a request outcome.
type Encoder interface {
	Encode(requestID string, ok bool) ([]string, error)
}

// Result describes the outcome of a workflow in transport-neutral terms.
type Result struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Failure converts a classified error into the externally visible result.
// Every business and internal failure inside a workflow reports 404.
func Failure(err error) Result {
	return Result{Success: false, Status: http.StatusNotFound, Message: err.Error(), Kind: KindOf(err)}
}

// Service runs the register, load-funds and transfer-funds workflows.
type Service struct {
	store   ledger.Store
	codec   Encoder
	gateway notification.Gateway
	channel auth.ChannelAuthenticator
	logger  *slog.Logger
}

// NewService wires a wallet service.
func NewService(store ledger.Store, codec Encoder, gateway notification.Gateway, channel auth.ChannelAuthenticator, logger *slog.Logger) *Service {
	return &Service{store: store, codec: codec, gateway: gateway, channel: channel, logger: logger}
}

// chunks never fails: a missing interaction id renders as empty template slots.
func (s *Service) chunks(requestID string, ok bool) []string {
	chunks, err := s.codec.Encode(requestID, ok)
	if err != nil {
		s.logger.Warn("interaction id unavailable", "request_id", requestID, "error", err)
		return nil
	}
	return chunks
}

func (s *Service) notify(ctx context.Context, phone, message string) {
	if !s.gateway.Send(ctx, phone, message) {
		s.logger.Warn("notification not delivered", "destination", phone)
	}
}

func (s *Service) fail(action, requestID, sender string, err error) {
	s.logger.Error(action+" failed",
		"request_id", requestID,
		"sender", sender,
		"kind", string(KindOf(err)),
		"error", err,
	)
}

// formatAmount renders an amount for messages. Amounts too large or too
// precise to format cheaply render as "".
func formatAmount(n decimal.NullDecimal) string {
	if !n.Valid || !ledger.Bounded(n.Decimal) {
		return ""
	}
	return n.Decimal.String()
}

func validAmount(n decimal.NullDecimal) bool {
	return n.Valid && ledger.ValidAmount(n.Decimal)
}
