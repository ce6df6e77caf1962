package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sms_notifications_total",
		Help: "Outbound SMS notification attempts by gateway and result",
	},
	[]string{"gateway", "result"},
)

func observe(gateway string, ok bool) {
	result := "delivered"
	if !ok {
		result = "failed"
	}
	deliveries.WithLabelValues(gateway, result).Inc()
}

// Gateway delivers a text message to a phone number. Implementations never
// return errors; a false result means the message was not delivered and the
// failure has already been logged.
type Gateway interface {
	Send(ctx context.Context, phone, message string) bool
}

// LoggerGateway writes notifications to the structured logger instead of a
// carrier. Used in development when no SMS provider is configured.
type LoggerGateway struct {
	logger *slog.Logger
}

// NewLoggerGateway constructs a logging gateway.
func NewLoggerGateway(logger *slog.Logger) *LoggerGateway {
	return &LoggerGateway{logger: logger}
}

// Send logs the message and reports success.
func (g *LoggerGateway) Send(_ context.Context, phone, message string) bool {
	if phone == "" || message == "" {
		return false
	}
	if g != nil && g.logger != nil {
		g.logger.Info("notification", "destination", phone, "body", message)
	}
	observe("logger", true)
	return true
}

// Message is a recorded notification attempt.
type Message struct {
	Destination string
	Body        string
	Delivered   bool
}

// Recorder keeps every attempt in memory. Tests use it to assert on what the
// workflows sent.
type Recorder struct {
	mu       sync.Mutex
	Fail     bool
	messages []Message
}

// Send records the attempt and reports !Fail.
func (r *Recorder) Send(_ context.Context, phone, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := !r.Fail && phone != "" && message != ""
	r.messages = append(r.messages, Message{Destination: phone, Body: message, Delivered: ok})
	return ok
}

// Messages returns a copy of the recorded attempts.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Reset clears recorded attempts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
