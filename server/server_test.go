package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Davincible/cachekit/cache"
	"github.com/Davincible/cachekit/limiter"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil logger) error = nil, want error")
	}

	if _, err := New(newTestLogger(), WithAddr("")); err == nil {
		t.Error("New with empty addr error = nil, want error")
	}

	s, err := New(newTestLogger(), WithAddr(":0"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Addr() != ":0" {
		t.Errorf("Addr() = %q, want %q", s.Addr(), ":0")
	}
}

func TestServerHealthCheck(t *testing.T) {
	s, err := New(newTestLogger(), WithAddr(":0"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("health Content-Type = %q, want application/json", ct)
	}
}

func TestServerRateLimit(t *testing.T) {
	s, err := New(newTestLogger(),
		WithAddr(":0"),
		WithRateLimit(limiter.NewKeyed(1, 2), nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Shutdown(context.Background()) //nolint:errcheck

	s.Router().Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		s.Router().ServeHTTP(rec, req)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestServerResponseCache(t *testing.T) {
	s, err := New(newTestLogger(),
		WithAddr(":0"),
		WithResponseCache(cache.NewTTL[string, cache.Response](16, time.Minute), nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Shutdown(context.Background()) //nolint:errcheck

	calls := 0
	s.Router().Get("/data", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("payload"))
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))
		if got := rec.Body.String(); got != "payload" {
			t.Fatalf("body = %q on request %d, want %q", got, i, "payload")
		}
	}

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("SERVER_RATE_LIMIT", "5")
	t.Setenv("SERVER_RATE_BURST", "3")

	s, err := New(newTestLogger(), FromEnv()...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Shutdown(context.Background()) //nolint:errcheck

	if s.Addr() != ":9090" {
		t.Errorf("Addr() = %q, want %q", s.Addr(), ":9090")
	}
	if s.config.rateLimiter == nil {
		t.Error("rate limiter should be configured from environment")
	}
}
