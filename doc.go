// Package cachekit provides a collection of admission-control and bounded
// in-memory caching primitives for building production-ready Go applications.
//
// This module contains the following packages:
//
// RATE LIMITING & ADMISSION CONTROL:
//
//   - limiter: Token bucket rate limiting with lazy refill, per-key bucket
//     maps with idle cleanup, a circuit breaker, HTTP middleware with
//     IP/header/JWT key extraction, and Prometheus metrics
//
// CACHING & STORAGE:
//
//   - cache: Generic bounded caches with three eviction policies: LRU
//     (least recently used), TTL (per-entry expiry layered on LRU overflow
//     eviction), and LFU (least frequently used with recency tie-break).
//     Includes MessagePack/Brotli snapshot persistence, optional NATS
//     JetStream KeyValue mirroring, HTTP response caching middleware, and
//     Prometheus metrics
//
// CONCURRENCY & SAFETY:
//
//   - safemap: Thread-safe generic map for unbounded shared state
//   - retry: Retry loops with fixed, exponential, and full-jitter backoff
//     strategies, bounded by attempt count or total timeout
//
// HTTP SERVER & MIDDLEWARE:
//
//   - server: HTTP server built on chi with CORS, Brotli compression,
//     request timeouts, health checks, Prometheus metrics, pprof endpoints,
//     graceful shutdown, and built-in rate limiting and response caching
//
// UTILITIES & HELPERS:
//
//   - env: Environment variable reading with _FILE and /run/secrets
//     fallbacks and typed getters
//   - utils: Duration JSON parsing (including day suffixes) and a monotonic
//     stopwatch for elapsed-time measurement
//
// All packages are designed for free-threaded callers: every structure owns
// its state behind a per-instance lock, holds no lock across I/O, and can be
// used independently or composed together.
package cachekit
