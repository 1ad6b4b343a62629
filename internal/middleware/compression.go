package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, that gets compressed
	MinSize int
	// Types lists the media types eligible for compression
	Types []string
}

// DefaultCompressionConfig compresses the JSON API responses. Thumbnails
// and raw media are already compressed formats.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Types:   []string{"application/json", "text/plain"},
	}
}

var gzipPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// compressWriter holds the body back until MinSize bytes are seen, then
// commits to either gzip or passthrough.
type compressWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	status  int
	pending []byte
	decided bool
	gz      *gzip.Writer
}

func (c *compressWriter) WriteHeader(status int) {
	if !c.decided {
		c.status = status
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if c.decided {
		if c.gz != nil {
			return c.gz.Write(p)
		}
		return c.ResponseWriter.Write(p)
	}

	c.pending = append(c.pending, p...)
	if len(c.pending) >= c.config.MinSize {
		if err := c.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (c *compressWriter) eligible() bool {
	if len(c.pending) < c.config.MinSize || c.Header().Get("Content-Encoding") != "" {
		return false
	}
	mediaType, _, _ := strings.Cut(c.Header().Get("Content-Type"), ";")
	return slices.Contains(c.config.Types, strings.ToLower(strings.TrimSpace(mediaType)))
}

func (c *compressWriter) decide() error {
	c.decided = true
	if c.eligible() {
		h := c.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		c.gz = gzipPool.Get().(*gzip.Writer)
		c.gz.Reset(c.ResponseWriter)
	}

	c.ResponseWriter.WriteHeader(c.status)
	body := c.pending
	c.pending = nil
	if c.gz != nil {
		_, err := c.gz.Write(body)
		return err
	}
	_, err := c.ResponseWriter.Write(body)
	return err
}

func (c *compressWriter) Flush() {
	if !c.decided {
		_ = c.decide()
	}
	if c.gz != nil {
		_ = c.gz.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *compressWriter) close() error {
	if !c.decided {
		if err := c.decide(); err != nil {
			return err
		}
	}
	if c.gz == nil {
		return nil
	}
	err := c.gz.Close()
	gzipPool.Put(c.gz)
	c.gz = nil
	return err
}

// Compression returns a middleware that gzips eligible responses for
// clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{ResponseWriter: w, config: config, status: http.StatusOK}
			defer func() { _ = cw.close() }()
			next.ServeHTTP(cw, r)
		})
	}
}
