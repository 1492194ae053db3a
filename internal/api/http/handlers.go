package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
	"github.com/GriffinCanCode/LanDrop/backend/internal/storage"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Options tune request handling.
type Options struct {
	// MaxFilesPerBatch caps the number of file parts in one upload.
	MaxFilesPerBatch int
	// MaxRequestBytes caps the whole upload request body.
	MaxRequestBytes int64
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store   *storage.Store
	metrics *monitoring.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewHandlers creates a new handler set
func NewHandlers(store *storage.Store, metrics *monitoring.Metrics, logger *zap.Logger, opts Options) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	if opts.MaxFilesPerBatch <= 0 {
		opts.MaxFilesPerBatch = 500
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = store.MaxFileSize()*int64(opts.MaxFilesPerBatch) + 1<<20
	}
	return &Handlers{
		store:   store,
		metrics: metrics,
		logger:  logger.Named("api"),
		opts:    opts,
	}
}

// Register mounts all routes on r. JSON routes go through jsonMW (gzip);
// downloads bypass it.
func (h *Handlers) Register(r gin.IRouter, jsonMW ...gin.HandlerFunc) {
	r.GET("/health", h.Health)
	r.GET("/api/download/*path", h.Download)

	api := r.Group("/", jsonMW...)
	api.GET("/", h.Root)
	api.POST("/api/check-files", h.CheckFiles)
	api.POST("/api/upload", h.Upload)
	api.GET("/api/files", h.ListFiles)
	api.DELETE("/api/files/*path", h.Delete)
}

// Root identifies the server
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, types.InfoResponse{
		Message: "LanDrop file transfer server is running",
		Version: Version,
		Endpoints: map[string]string{
			"checkFiles": "POST /api/check-files",
			"upload":     "POST /api/upload",
			"files":      "GET /api/files",
			"download":   "GET /api/download/:relativePath",
			"delete":     "DELETE /api/files/:relativePath",
			"health":     "GET /health",
			"metrics":    "GET /metrics",
		},
	})
}

// Health reports liveness and running totals
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"version":     Version,
		"storageRoot": h.store.Root().Dir(),
		"maxFileSize": h.store.MaxFileSize(),
		"stats":       h.metrics.Snapshot(),
	})
}
