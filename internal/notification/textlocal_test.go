package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/epaisa/epaisa_sms/internal/logging"
)

func TestTextlocalGatewayPostsForm(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got = map[string]string{
			"apikey":  r.PostForm.Get("apikey"),
			"numbers": r.PostForm.Get("numbers"),
			"message": r.PostForm.Get("message"),
			"sender":  r.PostForm.Get("sender"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	gw := NewTextlocalGateway(TextlocalConfig{APIKey: "key-1", URL: srv.URL}, logging.Discard())
	if !gw.Send(context.Background(), "919000000001", "hello") {
		t.Fatal("expected delivery")
	}
	if got["apikey"] != "key-1" || got["numbers"] != "919000000001" || got["message"] != "hello" || got["sender"] != DefaultSenderLabel {
		t.Fatalf("unexpected form %v", got)
	}
}

func TestTextlocalGatewayReportsFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"provider failure": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"failure"}`))
		},
		"http error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			gw := NewTextlocalGateway(TextlocalConfig{URL: srv.URL}, logging.Discard())
			if gw.Send(context.Background(), "919000000001", "hello") {
				t.Fatal("expected failed delivery")
			}
		})
	}
}

func TestTextlocalGatewaySkipsEmptyInput(t *testing.T) {
	gw := NewTextlocalGateway(TextlocalConfig{URL: "http://127.0.0.1:1"}, logging.Discard())
	if gw.Send(context.Background(), "", "hello") {
		t.Fatal("expected false for empty destination")
	}
	if gw.Send(context.Background(), "919000000001", "") {
		t.Fatal("expected false for empty body")
	}
}

func TestRecorderHonoursFail(t *testing.T) {
	r := &Recorder{Fail: true}
	if r.Send(context.Background(), "1", "x") {
		t.Fatal("expected failure")
	}
	if len(r.Messages()) != 1 || r.Messages()[0].Delivered {
		t.Fatalf("unexpected messages %+v", r.Messages())
	}
}
