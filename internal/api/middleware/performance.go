package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// gzipMinSize is the smallest body worth compressing
const gzipMinSize = 512

var compressibleTypes = []string{"application/json", "application/xml", "text/"}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// Compression gzips JSON and XML bodies for clients that accept it
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		gw := &gzipResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer gw.finish()

		next.ServeHTTP(gw, r)
	})
}

// gzipResponseWriter buffers the first bytes so small or non-text bodies go out uncompressed
type gzipResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	buf         []byte
	gz          *gzip.Writer
	passthrough bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = statusCode
	w.wroteHeader = true
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	switch {
	case w.gz != nil:
		return w.gz.Write(b)
	case w.passthrough:
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)
	if len(w.buf) < gzipMinSize {
		return len(b), nil
	}
	if err := w.start(); err != nil {
		return 0, err
	}
	return len(b), nil
}

// start commits to compressing or not once enough of the body is known
func (w *gzipResponseWriter) start() error {
	header := w.Header()
	if len(w.buf) >= gzipMinSize && compressible(header.Get("Content-Type")) && header.Get("Content-Encoding") == "" {
		header.Set("Content-Encoding", "gzip")
		header.Del("Content-Length")
		w.ResponseWriter.WriteHeader(w.statusCode)

		w.gz = gzipWriterPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
		_, err := w.gz.Write(w.buf)
		w.buf = nil
		return err
	}

	w.passthrough = true
	w.ResponseWriter.WriteHeader(w.statusCode)
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

func (w *gzipResponseWriter) finish() {
	if w.gz == nil && !w.passthrough {
		if !w.wroteHeader {
			return
		}
		_ = w.start()
	}
	if w.gz != nil {
		_ = w.gz.Close()
		gzipWriterPool.Put(w.gz)
		w.gz = nil
	}
}

func compressible(contentType string) bool {
	for _, t := range compressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// CacheControl sets a default Cache-Control header per route family; handlers may override it
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch route := routeLabel(r.URL.Path); route {
		case "/api/locations/search":
			w.Header().Set("Cache-Control", "private, max-age=60")
		case "/api/locations/stats", "/api/locations/suggest":
			w.Header().Set("Cache-Control", "public, max-age=300")
		case "/api/locations/{slug}":
			w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
		case "/api/geocode":
			w.Header().Set("Cache-Control", "public, max-age=3600")
		default:
			w.Header().Set("Cache-Control", "private, no-cache, must-revalidate")
		}

		next.ServeHTTP(w, r)
	})
}

// ResponseOptimization combines cache headers and compression
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(Compression(next))
}
