package cache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestMiddlewareCachesGet(t *testing.T) {
	var calls int64

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	})

	c := NewTTL[string, Response](10, time.Minute)
	defer c.Close()

	wrapped := Middleware(c, nil)(handler)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/greet", nil))

	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/greet", nil))

	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if got := second.Body.String(); got != "hello" {
		t.Errorf("cached body = %q, want %q", got, "hello")
	}
	if got := second.Header().Get("Content-Type"); got != "text/plain" {
		t.Errorf("cached Content-Type = %q, want text/plain", got)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}
}

func TestMiddlewareSkipsNonGet(t *testing.T) {
	var calls int64

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte("created"))
	})

	c := NewTTL[string, Response](10, time.Minute)
	defer c.Close()

	wrapped := Middleware(c, nil)(handler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create", nil))
		if got := rec.Header().Get("X-Cache"); got != "" {
			t.Errorf("X-Cache = %q on POST, want empty", got)
		}
	}

	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}
	if got := c.Len(); got != 0 {
		t.Errorf("cache Len() = %d after POSTs, want 0", got)
	}
}

func TestMiddlewareSkipsErrors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := NewTTL[string, Response](10, time.Minute)
	defer c.Close()

	wrapped := Middleware(c, nil)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := c.Len(); got != 0 {
		t.Errorf("cache Len() = %d after error response, want 0", got)
	}
}

func TestQueryKeyFunc(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/search?b=2&a=1", nil)
	b := httptest.NewRequest(http.MethodGet, "/search?a=1&b=2", nil)

	if QueryKeyFunc(a) != QueryKeyFunc(b) {
		t.Errorf("keys differ for reordered query: %q vs %q", QueryKeyFunc(a), QueryKeyFunc(b))
	}

	c := httptest.NewRequest(http.MethodGet, "/search?a=1&b=3", nil)
	if QueryKeyFunc(a) == QueryKeyFunc(c) {
		t.Error("keys should differ for different query values")
	}
}
