package cbdc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/epaisa/epaisa_sms/internal/logging"
)

type captured struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func sandbox(t *testing.T, status int, reply string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.EscapedPath()
		got.auth = r.Header.Get("X-Authorization")
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &got.body)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "key-1", BaseURL: srv.URL + "/"}, logging.Discard()), got
}

func TestClientPaths(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		call   func(*Client) (json.RawMessage, error)
		method string
		path   string
	}{
		{"banks", func(c *Client) (json.RawMessage, error) { return c.Banks(ctx) }, http.MethodGet, "/banks"},
		{"customer", func(c *Client) (json.RawMessage, error) { return c.Customer(ctx, "b1", "c1") }, http.MethodGet, "/banks/b1/customers/c1"},
		{"wallet", func(c *Client) (json.RawMessage, error) { return c.Wallet(ctx, "b1", "c1", "w 1") }, http.MethodGet, "/banks/b1/customers/c1/wallets/w%201"},
		{"create customer", func(c *Client) (json.RawMessage, error) {
			return c.CreateCustomer(ctx, "b1", map[string]any{"name": "Asha"})
		}, http.MethodPost, "/banks/b1/customers"},
		{"create wallet", func(c *Client) (json.RawMessage, error) {
			return c.CreateWallet(ctx, "b1", "c1", map[string]any{"name": "Asha"})
		}, http.MethodPost, "/banks/b1/customers/c1/wallets"},
		{"purchase", func(c *Client) (json.RawMessage, error) {
			return c.Purchase(ctx, "b1", map[string]any{"name": "Asha"})
		}, http.MethodPost, "/banks/b1/purchases"},
		{"transfer", func(c *Client) (json.RawMessage, error) {
			return c.Transfer(ctx, "b1", "c1", "w1", map[string]any{"name": "Asha"})
		}, http.MethodPost, "/banks/b1/customers/c1/wallets/w1/transfer"},
	}

	for _, tc := range cases {
		client, got := sandbox(t, http.StatusOK, `{"ok":true}`)
		raw, err := tc.call(client)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if string(raw) != `{"ok":true}` {
			t.Fatalf("%s: unexpected body %s", tc.name, raw)
		}
		if got.method != tc.method || got.path != tc.path {
			t.Fatalf("%s: expected %s %s, got %s %s", tc.name, tc.method, tc.path, got.method, got.path)
		}
		if got.auth != "key-1" {
			t.Fatalf("%s: missing credential header", tc.name)
		}
		if tc.method == http.MethodPost && got.body["name"] != "Asha" {
			t.Fatalf("%s: payload not forwarded: %+v", tc.name, got.body)
		}
	}
}

func TestClientNon200(t *testing.T) {
	client, _ := sandbox(t, http.StatusUnauthorized, `{"error":"bad key"}`)
	_, err := client.Banks(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Body != `{"error":"bad key"}` {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestHandlerProxiesLookups(t *testing.T) {
	client, got := sandbox(t, http.StatusOK, `[{"id":"b1"}]`)
	h := NewHandler(client)
	app := fiber.New()
	app.Get("/banks", h.Banks)
	app.Get("/banks/:bankId/customers/:customerId/wallets/:address", h.Wallet)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/banks", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `[{"id":"b1"}]` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/banks/b1/customers/c1/wallets/w1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if got.path != "/banks/b1/customers/c1/wallets/w1" {
		t.Fatalf("unexpected upstream path %s", got.path)
	}
}

func TestHandlerMapsUpstreamStatus(t *testing.T) {
	client, _ := sandbox(t, http.StatusNotFound, `{"error":"no such bank"}`)
	app := fiber.New()
	app.Get("/banks", NewHandler(client).Banks)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/banks", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
