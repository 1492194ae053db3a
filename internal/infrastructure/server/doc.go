// Package server assembles the LanDrop HTTP server: storage, handlers,
// middleware and metrics, plus graceful shutdown.
package server
