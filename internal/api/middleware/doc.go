// Package middleware provides the gin middleware stack of the LanDrop
// server: CORS allow-list, per-client rate limiting, request ids with
// request logging, and gzip for JSON responses.
package middleware
