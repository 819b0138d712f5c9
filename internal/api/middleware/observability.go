package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
)

const locationsPrefix = "/api/locations/"

// fixed location routes; anything else under the prefix is a slug
var fixedLocationRoutes = map[string]bool{
	"search":  true,
	"suggest": true,
	"stats":   true,
}

// routeLabel maps a request path to a bounded route name for spans and metrics
func routeLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, locationsPrefix); ok && rest != "" && !fixedLocationRoutes[rest] {
		return locationsPrefix + "{slug}"
	}
	switch path {
	case "/health", "/sitemap.xml", "/api/geocode", "/api/analytics/zero-result-queries":
		return path
	}
	if strings.HasPrefix(path, locationsPrefix) {
		return path
	}
	return "unmatched"
}

// ObservabilityMiddleware traces each request and records request metrics
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r.URL.Path)

			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+route)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.String("request.id", w.Header().Get(RequestIDHeader)),
			)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span,
				attribute.Int("http.status_code", rw.statusCode),
				attribute.Int("http.response_size", rw.written),
			)
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}

// responseWriter records the status code and body size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}
