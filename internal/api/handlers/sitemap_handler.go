package handlers

import (
	"context"
	"net/http"
	"time"
)

// SitemapRenderer renders the sitemap document
type SitemapRenderer interface {
	Sitemap(ctx context.Context, baseURL string, now time.Time) ([]byte, error)
}

// SitemapHandler serves /sitemap.xml
type SitemapHandler struct {
	renderer SitemapRenderer
	baseURL  string
	now      func() time.Time
}

// NewSitemapHandler creates a new sitemap handler for the public site at baseURL
func NewSitemapHandler(renderer SitemapRenderer, baseURL string) *SitemapHandler {
	return &SitemapHandler{renderer: renderer, baseURL: baseURL, now: time.Now}
}

// GetSitemap handles GET /sitemap.xml
func (h *SitemapHandler) GetSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.renderer.Sitemap(r.Context(), h.baseURL, h.now())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
