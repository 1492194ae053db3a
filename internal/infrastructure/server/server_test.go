package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/LanDrop/backend/internal/infrastructure/logging"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Storage.Root = filepath.Join(t.TempDir(), "uploads")
	cfg.Logging.Development = true
	return cfg
}

func TestNewServerCreatesStorageRoot(t *testing.T) {
	cfg := testConfig(t)

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.DirExists(t, cfg.Storage.Root)
	assert.Equal(t, int64(100<<20), srv.Store().MaxFileSize())
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.MaxFileSizeMB = -1

	_, err := NewServer(cfg, nil)
	assert.ErrorContains(t, err, "invalid config")
}

func TestRouterWiring(t *testing.T) {
	srv, err := NewServer(testConfig(t), nil)
	require.NoError(t, err)
	router := srv.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// JSON routes are gzip encoded on request.
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"files":[]}`, string(body))

	// Foreign origins are refused, LAN origins admitted.
	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Origin", "http://192.168.1.5:5173")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `landrop_http_requests_total{method="GET",path="/api/files",status="200"}`)
}

func TestServeAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig(t), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "healthy", health["status"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.NoError(t, srv.Close())
}
