package action

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/epaisa/epaisa_sms/internal/idempotency"
	"github.com/epaisa/epaisa_sms/internal/notification"
	"github.com/epaisa/epaisa_sms/internal/secure"
	"github.com/epaisa/epaisa_sms/internal/wallet"
)

var (
	actionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_actions_processed_total",
			Help: "Inbound SMS actions by action and status code",
		},
		[]string{"action", "status"},
	)

	actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sms_action_duration_seconds",
			Help:    "Time spent handling an inbound SMS action",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"action"},
	)
)

// DefaultPrefixLength is the length of the literal marker the SMS relay puts
// in front of the ciphertext.
const DefaultPrefixLength = 5

// Workflows is the set of wallet operations the dispatcher routes to.
type Workflows interface {
	Register(ctx context.Context, sender string, in wallet.RegisterInput) wallet.Result
	LoadFunds(ctx context.Context, sender string, in wallet.LoadInput) wallet.Result
	TransferFunds(ctx context.Context, sender string, in wallet.TransferInput) wallet.Result
}

// Inbound is one message delivered by the SMS relay.
type Inbound struct {
	Content string
	Sender  string
}

// Dispatcher decrypts inbound messages and routes them to the wallet workflows.
type Dispatcher struct {
	cipher    secure.Cipher
	prefixLen int
	workflows Workflows
	guard     idempotency.Guard
	gateway   notification.Gateway
	logger    *slog.Logger
}

// Options configures a Dispatcher. Guard may be nil to disable deduplication.
type Options struct {
	Cipher       secure.Cipher
	PrefixLength int
	Workflows    Workflows
	Guard        idempotency.Guard
	Gateway      notification.Gateway
	Logger       *slog.Logger
}

// NewDispatcher builds a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		cipher:    opts.Cipher,
		prefixLen: opts.PrefixLength,
		workflows: opts.Workflows,
		guard:     opts.Guard,
		gateway:   opts.Gateway,
		logger:    opts.Logger,
	}
}

func internalError() wallet.Result {
	return wallet.Result{Status: http.StatusInternalServerError, Message: "something went wrong", Kind: wallet.KindInternal}
}

// Handle processes one inbound message and returns the result to report to
// the relay.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) wallet.Result {
	if len(in.Content) < d.prefixLen || in.Content == "" {
		d.logger.Error("invalid request data", "sender", in.Sender)
		return wallet.Result{Status: http.StatusNotFound, Message: "Invalid data", Kind: wallet.KindValidation}
	}

	plain, err := d.cipher.Decrypt(in.Content[d.prefixLen:])
	if err != nil {
		d.logger.Error("decrypt inbound message", "sender", in.Sender, "error", err)
		d.gateway.Send(ctx, in.Sender, notification.UnknownAction())
		return internalError()
	}
	act, err := Parse(plain)
	if err != nil {
		d.logger.Error("parse inbound message", "sender", in.Sender, "error", err)
		d.gateway.Send(ctx, in.Sender, notification.UnknownAction())
		return internalError()
	}

	start := time.Now()
	result := d.dispatch(ctx, in.Sender, act)
	actionsProcessed.WithLabelValues(act.Name(), http.StatusText(result.Status)).Inc()
	actionDuration.WithLabelValues(act.Name()).Observe(time.Since(start).Seconds())
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, sender string, act Action) wallet.Result {
	if _, unknown := act.(Unknown); unknown || d.guard == nil || act.RequestID() == "" {
		return d.route(ctx, sender, act)
	}

	key := act.Name() + ":" + act.RequestID()
	reservation, err := d.guard.Reserve(ctx, key)
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		d.logger.Warn("duplicate request in flight", "action", act.Name(), "request_id", act.RequestID())
		return wallet.Result{Status: http.StatusNotFound, Message: err.Error(), Kind: wallet.KindDuplicate}
	case err != nil:
		// The store rejects duplicate ledger entries and phones on its own.
		d.logger.Warn("idempotency guard unavailable", "action", act.Name(), "request_id", act.RequestID(), "error", err)
		return d.route(ctx, sender, act)
	case reservation.Replay:
		var stored wallet.Result
		if err := json.Unmarshal(reservation.Stored, &stored); err != nil {
			d.logger.Warn("failed to decode stored result", "key", key, "error", err)
			return wallet.Result{Status: http.StatusNotFound, Message: "duplicate request", Kind: wallet.KindDuplicate}
		}
		d.logger.Info("replaying stored result", "action", act.Name(), "request_id", act.RequestID(), "status", stored.Status)
		return stored
	}

	result := d.route(ctx, sender, act)

	// Internal failures may succeed on retry, so they are not remembered.
	if result.Kind == wallet.KindInternal {
		if err := d.guard.Release(ctx, key); err != nil {
			d.logger.Warn("idempotency release failed", "key", key, "error", err)
		}
		return result
	}
	payload, err := json.Marshal(result)
	if err == nil {
		err = d.guard.Complete(ctx, key, payload)
	}
	if err != nil {
		d.logger.Warn("idempotency persist failed", "key", key, "error", err)
		if err := d.guard.Release(ctx, key); err != nil {
			d.logger.Warn("idempotency release failed", "key", key, "error", err)
		}
	}
	return result
}

func (d *Dispatcher) route(ctx context.Context, sender string, act Action) wallet.Result {
	d.logger.Info("sms action", "action", act.Name(), "request_id", act.RequestID(), "sender", sender)

	switch a := act.(type) {
	case Register:
		return d.workflows.Register(ctx, sender, a.RegisterInput)
	case LoadFunds:
		return d.workflows.LoadFunds(ctx, sender, a.LoadInput)
	case TransferFunds:
		return d.workflows.TransferFunds(ctx, sender, a.TransferInput)
	default:
		d.logger.Error("no action recognized", "action", act.Name(), "sender", sender)
		if !d.gateway.Send(ctx, sender, notification.UnknownAction()) {
			d.logger.Warn("notification not delivered", "destination", sender)
		}
		return wallet.Result{Status: http.StatusNotFound, Message: "no action recognized", Kind: wallet.KindValidation}
	}
}
