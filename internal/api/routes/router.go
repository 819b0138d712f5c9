package routes

import (
	"net/http"

	"github.com/zatekoja/restaurantlocator/backend/internal/api/handlers"
	"github.com/zatekoja/restaurantlocator/backend/internal/api/middleware"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	locationHandler    *handlers.LocationHandler
	geolocationHandler *handlers.GeolocationHandler
	sitemapHandler     *handlers.SitemapHandler
	analyticsHandler   *handlers.AnalyticsHandler
	healthHandler      *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	locationHandler *handlers.LocationHandler,
	geolocationHandler *handlers.GeolocationHandler,
	sitemapHandler *handlers.SitemapHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	healthHandler *handlers.HealthHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		locationHandler:    locationHandler,
		geolocationHandler: geolocationHandler,
		sitemapHandler:     sitemapHandler,
		analyticsHandler:   analyticsHandler,
		healthHandler:      healthHandler,
		cacheMiddleware:    cacheMiddleware,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Location endpoints; the fixed paths win over {slug}
	r.mux.HandleFunc("GET /api/locations/search", r.locationHandler.SearchLocations)
	r.mux.HandleFunc("GET /api/locations/suggest", r.locationHandler.SuggestLocations)
	r.mux.HandleFunc("GET /api/locations/stats", r.locationHandler.GetStats)
	r.mux.HandleFunc("GET /api/locations/{slug}", r.locationHandler.GetLocation)

	r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)

	r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.analyticsHandler.GetZeroResultQueries)

	r.mux.HandleFunc("GET /sitemap.xml", r.sitemapHandler.GetSitemap)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
