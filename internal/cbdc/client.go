package cbdc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the hackathon sandbox root.
const DefaultBaseURL = "https://api.apixplatform.com/cbdc/hackathon"

// APIError is returned when the sandbox answers with anything but 200.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cbdc: unexpected status %d: %s", e.Status, e.Body)
}

// Config configures the sandbox client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the CBDC sandbox. Responses are passed through undecoded.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client, filling in defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Banks lists the participating banks.
func (c *Client) Banks(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, nil, "banks")
}

// Customer fetches one customer of a bank.
func (c *Client) Customer(ctx context.Context, bankID, customerID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, nil, "banks", bankID, "customers", customerID)
}

// CreateCustomer onboards a customer at a bank.
func (c *Client) CreateCustomer(ctx context.Context, bankID string, customer any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, customer, "banks", bankID, "customers")
}

// Wallet fetches a customer's wallet by address.
func (c *Client) Wallet(ctx context.Context, bankID, customerID, address string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, nil, "banks", bankID, "customers", customerID, "wallets", address)
}

// CreateWallet opens a wallet for a customer.
func (c *Client) CreateWallet(ctx context.Context, bankID, customerID string, wallet any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, wallet, "banks", bankID, "customers", customerID, "wallets")
}

// Purchase mints funds into a wallet.
func (c *Client) Purchase(ctx context.Context, bankID string, purchase any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, purchase, "banks", bankID, "purchases")
}

// Transfer moves funds out of a wallet.
func (c *Client) Transfer(ctx context.Context, bankID, customerID, address string, transfer any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, transfer, "banks", bankID, "customers", customerID, "wallets", address, "transfer")
}

func (c *Client) do(ctx context.Context, method string, payload any, segments ...string) (json.RawMessage, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	endpoint := c.cfg.BaseURL + "/" + strings.Join(escaped, "/")

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cbdc: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("cbdc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Authorization", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("cbdc request failed", "method", method, "path", strings.Join(segments, "/"), "error", err)
		return nil, fmt.Errorf("cbdc: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cbdc: read response: %w", err)
	}
	c.logger.Info("cbdc response",
		"method", method,
		"path", strings.Join(segments, "/"),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("cbdc: response is not JSON")
	}
	return json.RawMessage(raw), nil
}
