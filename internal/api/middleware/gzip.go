package middleware

import (
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// Gzip compresses responses for clients that accept it. Mount it on JSON
// routes only: downloads are served with Range support and an exact
// Content-Length, which compression would break.
func Gzip(level int) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() any {
			gz, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				gz, _ = gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
			}
			return gz
		},
	}

	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || c.Request.Method == "HEAD" {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		defer pool.Put(gz)
		gz.Reset(c.Writer)

		w := &gzipWriter{ResponseWriter: c.Writer, gz: gz}
		c.Writer = w
		c.Header("Vary", "Accept-Encoding")

		c.Next()

		if !w.wrote {
			// Nothing to compress; do not emit an empty gzip stream.
			gz.Reset(io.Discard)
		}
		gz.Close()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gz    *gzip.Writer
	wrote bool
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.wrote = true
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
	}
	return w.gz.Write(b)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}
