package notification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTextlocalURL is the production send endpoint.
	DefaultTextlocalURL = "https://api.textlocal.in/send/"
	// DefaultSenderLabel is the registered sender id shown on handsets.
	DefaultSenderLabel = "DYGNIF"
)

// TextlocalConfig configures the Textlocal HTTP gateway.
type TextlocalConfig struct {
	APIKey  string
	URL     string
	Sender  string
	Timeout time.Duration
}

// TextlocalGateway posts form-encoded messages to the Textlocal API.
type TextlocalGateway struct {
	cfg    TextlocalConfig
	client *http.Client
	logger *slog.Logger
}

// NewTextlocalGateway builds the gateway, filling in defaults.
func NewTextlocalGateway(cfg TextlocalConfig, logger *slog.Logger) *TextlocalGateway {
	if cfg.URL == "" {
		cfg.URL = DefaultTextlocalURL
	}
	if cfg.Sender == "" {
		cfg.Sender = DefaultSenderLabel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TextlocalGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type textlocalResponse struct {
	Status string `json:"status"`
}

// Send delivers message to phone and reports whether the provider accepted it.
func (g *TextlocalGateway) Send(ctx context.Context, phone, message string) bool {
	ok := g.send(ctx, phone, message)
	observe("textlocal", ok)
	return ok
}

func (g *TextlocalGateway) send(ctx context.Context, phone, message string) bool {
	if phone == "" || message == "" {
		g.logger.Error("sms send skipped: missing destination or body", "destination", phone)
		return false
	}

	form := url.Values{}
	form.Set("apikey", g.cfg.APIKey)
	form.Set("numbers", phone)
	form.Set("message", message)
	form.Set("sender", g.cfg.Sender)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		g.logger.Error("sms build request", "destination", phone, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("sms http error", "destination", phone, "error", err)
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		g.logger.Error("sms provider rejected message",
			"destination", phone,
			"status", resp.StatusCode,
			"duration", time.Since(start),
			"response", string(body),
		)
		return false
	}

	var decoded textlocalResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Status != "success" {
		g.logger.Error("sms provider returned failure", "destination", phone, "response", string(body))
		return false
	}

	g.logger.Info("sms sent", "destination", phone, "duration", time.Since(start))
	return true
}
