// Package server provides an HTTP server with rate limiting and response
// caching built in, on top of chi.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Davincible/cachekit/cache"
	"github.com/Davincible/cachekit/limiter"
)

// Server is an HTTP server wired with the package's rate limiter and
// response cache as middleware.
type Server struct {
	server  http.Server
	logger  *slog.Logger
	metrics *Metrics
	router  *chi.Mux
	config  *Config
}

// Metrics holds the server-level Prometheus metrics.
type Metrics struct {
	TotalRequests  *prometheus.CounterVec
	ResponseStatus *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics initializes and registers the server metrics.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		TotalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path"},
		),
		ResponseStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_response_status",
				Help:      "HTTP response status codes",
			},
			[]string{"status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
			},
			[]string{"path"},
		),
	}

	prometheus.MustRegister(m.TotalRequests, m.ResponseStatus, m.HTTPDuration)

	return m
}

func validateConfig(config *Config) error {
	if config.addr == "" {
		return errors.New("server address cannot be empty")
	}
	if config.readTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if config.writeTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if config.timeoutDuration <= 0 {
		return errors.New("timeout duration must be positive")
	}
	return nil
}

// New creates a new HTTP server instance.
func New(logger *slog.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	config := &Config{
		addr:              defaultAddr,
		readTimeout:       defaultReadTimeout,
		writeTimeout:      defaultWriteTimeout,
		timeoutDuration:   defaultTimeout,
		enableHealthCheck: true,
		healthCheckPath:   defaultHealthCheckPath,
		shutdownTimeout:   defaultShutdownTimeout,
		idleTimeout:       defaultIdleTimeout,
		maxHeaderBytes:    defaultMaxHeaderBytes,
		brotliLevel:       defaultBrotliLevel,
		corsOptions: &cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{
		logger: logger,
		router: chi.NewRouter(),
		config: config,
	}

	if config.enableMetrics {
		s.metrics = NewMetrics("http_server")
	}

	s.server = http.Server{
		Addr:              config.addr,
		Handler:           s.router,
		ReadTimeout:       config.readTimeout,
		WriteTimeout:      config.writeTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       config.idleTimeout,
		MaxHeaderBytes:    config.maxHeaderBytes,
	}

	s.setupMiddleware()
	s.setupDefaultRoutes()

	return s, nil
}

// Router returns the chi router instance for adding custom routes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) setupMiddleware() {
	mw := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(s.config.timeoutDuration),
	}

	if s.config.enableLogger {
		mw = append(mw, middleware.Logger)
	}

	if s.config.enableMetrics {
		mw = append(mw, s.prometheusMiddleware)
	}

	// Rate limiting runs before caching so cached responses count toward a
	// client's budget too.
	if s.config.rateLimiter != nil {
		mw = append(mw, limiter.Middleware(s.config.rateLimiter, s.config.rateLimitKey))
	}

	if s.config.responseCache != nil {
		mw = append(mw, cache.Middleware(s.config.responseCache, s.config.responseCacheKey))
	}

	if s.config.enableBrotli {
		mw = append(mw, s.brotliMiddleware)
	}

	if s.config.corsOptions != nil {
		mw = append(mw, cors.Handler(*s.config.corsOptions))
	}

	s.router.Use(append(mw, s.config.customMiddleware...)...)
}

func (s *Server) setupDefaultRoutes() {
	if s.config.enableMetrics {
		s.router.Mount("/metrics", promhttp.Handler())
	}

	if s.config.enableHealthCheck {
		s.router.Get(s.config.healthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			health := map[string]interface{}{
				"status":     "OK",
				"timestamp":  time.Now().UTC(),
				"goroutines": runtime.NumGoroutine(),
			}

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			health["memory"] = map[string]interface{}{
				"alloc":      m.Alloc,
				"totalAlloc": m.TotalAlloc,
				"sys":        m.Sys,
				"numGC":      m.NumGC,
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(health) //nolint:errcheck
		})
	}

	if s.config.enableProfiling {
		s.router.Mount("/debug/pprof", http.HandlerFunc(pprof.Index))
		s.router.Get("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
		s.router.Get("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
		s.router.Get("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
		s.router.Get("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))
		s.router.Get("/debug/pprof/goroutine", pprof.Handler("goroutine").ServeHTTP)
		s.router.Get("/debug/pprof/heap", pprof.Handler("heap").ServeHTTP)
	}
}

// Start begins listening for requests.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	go func() {
		s.logger.Info("starting HTTP server", slog.String("addr", s.server.Addr))
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.Any("err", err))
		}
	}()

	return nil
}

// Shutdown gracefully stops the server and closes the attached rate
// limiter and response cache.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.shutdownTimeout)
		defer cancel()
	}

	err := s.server.Shutdown(ctx)

	if s.config.rateLimiter != nil {
		s.config.rateLimiter.Close()
	}
	if s.config.responseCache != nil {
		s.config.responseCache.Close() //nolint:errcheck
	}

	return err
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(s.metrics.HTTPDuration.WithLabelValues(r.URL.Path))
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		s.metrics.ResponseStatus.WithLabelValues(strconv.Itoa(rw.statusCode)).Inc()
		s.metrics.TotalRequests.WithLabelValues(r.URL.Path).Inc()
		timer.ObserveDuration()
	})
}

func (s *Server) brotliMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Range") != "" || r.Header.Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "br")
		w.Header().Del("Content-Length")
		w.Header().Add("Vary", "Accept-Encoding")

		bw := &brotliResponseWriter{
			ResponseWriter: w,
			writer:         brotli.NewWriterLevel(w, s.config.brotliLevel),
		}
		defer bw.Close()

		next.ServeHTTP(bw, r)
	})
}

// brotliResponseWriter wraps http.ResponseWriter to compress the body.
type brotliResponseWriter struct {
	http.ResponseWriter
	writer *brotli.Writer
}

func (w *brotliResponseWriter) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w *brotliResponseWriter) Close() error {
	return w.writer.Close()
}

func (w *brotliResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// responseWriter tracks the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
