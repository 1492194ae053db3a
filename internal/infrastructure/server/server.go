package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/LanDrop/backend/internal/api/http"
	"github.com/GriffinCanCode/LanDrop/backend/internal/api/middleware"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/netinfo"
	"github.com/GriffinCanCode/LanDrop/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	store   *storage.Store
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance. The storage root is created if
// it does not exist.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing LanDrop server",
		zap.String("addr", cfg.Addr()),
		zap.String("storage_root", cfg.Storage.Root),
		zap.Int64("max_file_size_mb", cfg.Storage.MaxFileSizeMB),
	)

	store, err := storage.New(storage.Config{
		Root:        cfg.Storage.Root,
		CreateRoot:  true,
		MaxFileSize: cfg.MaxFileSizeBytes(),
	}, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	metrics := monitoring.NewMetrics()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowPrivate = cfg.CORS.AllowPrivate
	corsCfg.ExtraOrigins = cfg.CORS.ExtraOrigins
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(store, metrics, logger.Logger, api.Options{
		MaxFilesPerBatch: cfg.Storage.MaxFilesPerBatch,
		MaxRequestBytes:  cfg.MaxRequestBytes(),
	})
	handlers.Register(router, middleware.Gzip(gzip.DefaultCompression))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully", zap.String("storage_root", store.Root().Dir()))

	return &Server{
		router:  router,
		store:   store,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Router returns the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Store returns the storage backing the server.
func (s *Server) Store() *storage.Store {
	return s.store
}

// LANURLs lists the base URLs other machines can use.
func (s *Server) LANURLs() []string {
	addrs, err := netinfo.Addresses()
	if err != nil {
		s.logger.Warn("Could not list network interfaces", zap.Error(err))
		return nil
	}
	return netinfo.URLs(addrs, s.config.Server.Port)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		if netinfo.IsAddrInUse(err) {
			return fmt.Errorf("port %s is already in use; pick another with -port or PORT: %w", s.config.Server.Port, err)
		}
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is done, then shuts down
// gracefully, letting in-flight uploads finish within the timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	for _, u := range s.LANURLs() {
		s.logger.Info("Reachable on LAN", zap.String("url", u))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close flushes the logger.
func (s *Server) Close() error {
	s.logger.Info("Server stopped")
	_ = s.logger.Sync()
	return nil
}
