/*
Package monitoring provides Prometheus metrics for the LanDrop server.

# Overview

Each Metrics value owns a registry with the Go and process collectors,
HTTP request metrics and storage metrics (uploads, deletes, conflict
checks, listings and operation durations).

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "upload")
	// ... store the batch ...
	timer.Stop("ok")

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
