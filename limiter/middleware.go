package limiter

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt"
)

// KeyFunc extracts the rate-limit key from an HTTP request.
type KeyFunc func(*http.Request) string

// IPKey keys requests by client IP, honoring X-Forwarded-For and X-Real-IP
// set by a trusted proxy.
func IPKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// HeaderKey keys requests by the value of the given header, falling back to
// the client IP when the header is absent.
func HeaderKey(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := r.Header.Get(name); v != "" {
			return v
		}
		return IPKey(r)
	}
}

// JWTKey keys requests by the subject claim of a bearer token signed with
// the given HMAC secret. Requests without a valid token fall back to the
// client IP, so unauthenticated traffic is still limited.
func JWTKey(secret []byte) KeyFunc {
	return func(r *http.Request) string {
		token, err := extractToken(r.Header.Get("Authorization"))
		if err != nil {
			return IPKey(r)
		}

		var claims jwt.StandardClaims

		parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			return IPKey(r)
		}

		return claims.Subject
	}
}

// extractToken pulls the token out of an Authorization header value,
// accepting both "Bearer" and "Token" schemes.
func extractToken(hdr string) (string, error) {
	if hdr == "" {
		return "", errors.New("no authorization header")
	}

	parts := strings.Split(hdr, " ")
	if len(parts) != 2 {
		return "", errors.New("incomplete authorization header")
	}

	switch strings.ToLower(parts[0]) {
	case "bearer", "token":
		return parts[1], nil
	}

	return "", errors.New("unknown token format")
}

// Middleware returns HTTP middleware that rejects requests exceeding the
// keyed limiter's rate with 429 Too Many Requests and a Retry-After header.
// A nil keyFn defaults to keying by client IP.
func Middleware(l *Keyed, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = IPKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)

			if !l.Allow(key) {
				wait := l.NextAllow(key).Seconds()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
