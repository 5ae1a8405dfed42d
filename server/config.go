package server

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"github.com/Davincible/cachekit/cache"
	"github.com/Davincible/cachekit/env"
	"github.com/Davincible/cachekit/limiter"
)

// Config holds the server configuration.
type Config struct {
	// addr is the address the server will listen on (e.g. ":8080")
	addr string

	// readTimeout is the maximum duration for reading the entire request
	readTimeout time.Duration

	// writeTimeout is the maximum duration before timing out writes of the response
	writeTimeout time.Duration

	// timeoutDuration is the maximum duration before timing out the entire request
	timeoutDuration time.Duration

	// corsOptions configures Cross-Origin Resource Sharing settings
	corsOptions *cors.Options

	// enableMetrics determines if Prometheus metrics are enabled
	enableMetrics bool

	// enableLogger determines if request logging is enabled
	enableLogger bool

	// customMiddleware contains additional middleware to be added to the server
	customMiddleware []func(http.Handler) http.Handler

	// enableProfiling enables pprof debugging endpoints
	enableProfiling bool

	// enableBrotli enables brotli compression for responses
	enableBrotli bool

	// brotliLevel sets the compression level for brotli (1-11, default: 4)
	brotliLevel int

	// enableHealthCheck enables the health check endpoint
	enableHealthCheck bool

	// healthCheckPath customizes the health check endpoint path (default: /health)
	healthCheckPath string

	// shutdownTimeout is the maximum duration to wait for server shutdown
	shutdownTimeout time.Duration

	// idleTimeout is the maximum amount of time to wait for the next request
	idleTimeout time.Duration

	// maxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
	maxHeaderBytes int

	// rateLimiter throttles requests per client key when set
	rateLimiter *limiter.Keyed

	// rateLimitKey derives the client key for rate limiting (default: client IP)
	rateLimitKey limiter.KeyFunc

	// responseCache serves repeated GET requests from memory when set
	responseCache *cache.TTL[string, cache.Response]

	// responseCacheKey derives the cache key for responses (default: method + URL)
	responseCacheKey cache.KeyFunc
}

// Option defines a functional option for configuring the server.
type Option func(*Config)

// Default configuration values
const (
	defaultAddr            = ":8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultTimeout         = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20 // 1 MB
	defaultHealthCheckPath = "/health"
	defaultBrotliLevel     = 4
)

// WithAddr sets the server address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.addr = addr
	}
}

// WithTimeouts sets the read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(c *Config) {
		c.readTimeout = read
		c.writeTimeout = write
	}
}

// WithRequestTimeout sets the global request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeoutDuration = timeout
	}
}

// WithCORS sets the CORS options.
func WithCORS(options *cors.Options) Option {
	return func(c *Config) {
		c.corsOptions = options
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics() Option {
	return func(c *Config) {
		c.enableMetrics = true
	}
}

// WithLogger enables the chi logger middleware.
func WithLogger() Option {
	return func(c *Config) {
		c.enableLogger = true
	}
}

// WithMiddleware adds custom middleware.
func WithMiddleware(middleware ...func(http.Handler) http.Handler) Option {
	return func(c *Config) {
		c.customMiddleware = append(c.customMiddleware, middleware...)
	}
}

// WithProfiling enables pprof debugging endpoints.
func WithProfiling() Option {
	return func(c *Config) {
		c.enableProfiling = true
	}
}

// WithBrotli enables brotli compression with an optional compression level.
func WithBrotli(level ...int) Option {
	return func(c *Config) {
		c.enableBrotli = true
		if len(level) > 0 {
			if level[0] < 1 {
				level[0] = 1
			} else if level[0] > 11 {
				level[0] = 11
			}
			c.brotliLevel = level[0]
		} else {
			c.brotliLevel = defaultBrotliLevel
		}
	}
}

// WithHealthCheck configures the health check endpoint with an optional
// custom path.
func WithHealthCheck(path ...string) Option {
	return func(c *Config) {
		c.enableHealthCheck = true
		if len(path) > 0 && path[0] != "" {
			c.healthCheckPath = path[0]
		}
	}
}

// WithShutdownTimeout sets the maximum duration to wait for server shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithRateLimit throttles requests through the given keyed limiter. A nil
// keyFn falls back to the client IP. The limiter is closed on Shutdown.
func WithRateLimit(l *limiter.Keyed, keyFn limiter.KeyFunc) Option {
	return func(c *Config) {
		c.rateLimiter = l
		c.rateLimitKey = keyFn
	}
}

// WithResponseCache serves repeated GET requests from the given TTL cache.
// A nil keyFn falls back to method + URL. The cache is closed on Shutdown.
func WithResponseCache(rc *cache.TTL[string, cache.Response], keyFn cache.KeyFunc) Option {
	return func(c *Config) {
		c.responseCache = rc
		c.responseCacheKey = keyFn
	}
}

// FromEnv builds options from SERVER_* environment variables: SERVER_ADDR,
// SERVER_BROTLI, SERVER_METRICS, SERVER_RATE_LIMIT (requests per second,
// with SERVER_RATE_BURST), and SERVER_CACHE_TTL (with SERVER_CACHE_SIZE).
// Unset variables leave the defaults in place.
func FromEnv() []Option {
	var opts []Option

	if addr := env.Get("SERVER_ADDR"); addr != "" {
		opts = append(opts, WithAddr(addr))
	}

	if env.GetBool("SERVER_BROTLI") {
		opts = append(opts, WithBrotli(env.GetInt("SERVER_BROTLI_LEVEL", defaultBrotliLevel)))
	}

	if env.GetBool("SERVER_METRICS") {
		opts = append(opts, WithMetrics())
	}

	if rate := env.GetFloat64("SERVER_RATE_LIMIT"); rate > 0 {
		burst := env.GetInt("SERVER_RATE_BURST", 10)
		opts = append(opts, WithRateLimit(limiter.NewKeyed(rate, burst), nil))
	}

	if ttl := env.GetDuration("SERVER_CACHE_TTL"); ttl > 0 {
		size := env.GetInt("SERVER_CACHE_SIZE", 1024)
		opts = append(opts, WithResponseCache(cache.NewTTL[string, cache.Response](size, ttl), nil))
	}

	return opts
}
