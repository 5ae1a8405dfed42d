package cache

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
)

// KeyFunc generates a cache key from an HTTP request.
type KeyFunc func(*http.Request) string

// DefaultKeyFunc generates a cache key from the request method and URL.
func DefaultKeyFunc(r *http.Request) string {
	return fmt.Sprintf("%s:%s", r.Method, r.URL.String())
}

// QueryKeyFunc generates a cache key from the request method, URL path, and
// sorted query parameters, so equivalent URLs with reordered parameters
// share a cache entry.
func QueryKeyFunc(r *http.Request) string {
	query := r.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var queryStr strings.Builder
	for i, k := range keys {
		if i > 0 {
			queryStr.WriteString("&")
		}
		queryStr.WriteString(k)
		queryStr.WriteString("=")
		queryStr.WriteString(query.Get(k))
	}

	return fmt.Sprintf("%s:%s?%s", r.Method, r.URL.Path, queryStr.String())
}

// Response is a cached HTTP response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Middleware returns HTTP middleware that serves GET responses from the
// given TTL cache. Only 200 responses are cached; everything else passes
// through untouched. A nil keyFn defaults to DefaultKeyFunc.
func Middleware(c *TTL[string, Response], keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = DefaultKeyFunc
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip caching for non-GET requests
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)

			if cached, ok := c.Get(key); ok {
				writeCached(w, cached, "HIT")
				return
			}

			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)

			// Pass non-200 responses through uncached.
			if rec.Code != http.StatusOK {
				copyResponse(w, rec)
				return
			}

			cached := Response{
				Status:      rec.Code,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.Body.Bytes(),
			}
			c.Put(key, cached)

			writeCached(w, cached, "MISS")
		})
	}
}

func writeCached(w http.ResponseWriter, resp Response, state string) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set("X-Cache", state)
	w.WriteHeader(resp.Status)
	w.Write(resp.Body) //nolint:errcheck
}

func copyResponse(w http.ResponseWriter, rec *httptest.ResponseRecorder) {
	for k, vals := range rec.Header() {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rec.Code)
	w.Write(rec.Body.Bytes()) //nolint:errcheck
}
