// Package main is the entry point for the LanDrop file transfer server.
//
// The server stores uploads under a single storage root and serves them to
// any machine on the local network:
//
//	Browser / landrop CLI → LanDrop server → storage root on disk
//
// Configuration, lowest precedence first:
//   - Defaults
//   - YAML file given with -config
//   - Environment variables (PORT, STORAGE_ROOT, MAX_FILE_SIZE_MB, ...)
//   - CLI flags
//
// Usage:
//
//	# Serve ./uploads on port 3001
//	./server
//
//	# Custom root and limit, print a QR code for phones
//	./server -storage /srv/drop -max-size 500 -qr
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
