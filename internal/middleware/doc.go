// Package middleware provides the HTTP middleware chain of the gallery API:
// request IDs, W3C Extended Log Format access logging, Prometheus request
// metrics keyed by mux route template, and gzip for JSON responses.
package middleware
