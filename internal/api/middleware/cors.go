package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// privateOrigin matches browser origins on loopback and RFC 1918 networks.
var privateOrigin = regexp.MustCompile(
	`^https?://(localhost|127\.0\.0\.1|\[::1\]|192\.168\.\d{1,3}\.\d{1,3}|10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3})(:\d{1,5})?$`,
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	// AllowPrivate admits any loopback or private-network origin.
	AllowPrivate bool
	// ExtraOrigins are admitted verbatim (scheme://host[:port]).
	ExtraOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig returns the LAN allow-list configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowPrivate: true,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
			RequestIDHeader,
			types.BatchHeader,
		},
		MaxAge: 12 * time.Hour,
	}
}

// AllowOrigin reports whether origin passes the allow-list.
func (cfg CORSConfig) AllowOrigin(origin string) bool {
	origin = strings.TrimSuffix(origin, "/")
	if cfg.AllowPrivate && privateOrigin.MatchString(origin) {
		return true
	}
	for _, extra := range cfg.ExtraOrigins {
		if strings.EqualFold(strings.TrimSuffix(extra, "/"), origin) {
			return true
		}
	}
	return false
}

// CORS creates a CORS middleware with the provided configuration. Requests
// without an Origin header (curl, the landrop CLI) are not affected;
// cross-origin requests from other origins are rejected with 403.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  cfg.AllowOrigin,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}
