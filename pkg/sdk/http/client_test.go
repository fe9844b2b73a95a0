package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoRequestDecodesAndSendsExactBody(t *testing.T) {
	var gotBody, gotHeader, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotHeader = r.Header.Get("X-Test")
		gotQuery = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nonce":"5"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithTimeout(5*time.Second))
	var out struct {
		Nonce string `json:"nonce"`
	}
	body := `{"b":1,"a":2}`
	_, err := c.DoRequest(context.Background(), http.MethodPost, "/submit", &RequestOptions{
		Headers: map[string]string{"X-Test": "yes"},
		Params:  map[string]any{"id": 42},
		Data:    body,
	}, &out)
	if err != nil {
		t.Fatalf("DoRequest: %v", err)
	}
	if out.Nonce != "5" {
		t.Errorf("nonce = %q", out.Nonce)
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
	if gotHeader != "yes" || gotQuery != "42" {
		t.Errorf("header=%q query=%q", gotHeader, gotQuery)
	}
	if c.BaseURL() != srv.URL {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}

func TestDoRequestStatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("  quota exceeded\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.DoRequest(context.Background(), http.MethodGet, "/nonce", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests || se.Body != "  quota exceeded\n" || se.Path != "/nonce" {
		t.Errorf("StatusError = %+v", se)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want no retries", calls)
	}
}

func TestDoRequestUnsupportedMethod(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.DoRequest(context.Background(), "PATCH", "/", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
