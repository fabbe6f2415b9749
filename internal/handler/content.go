package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/service"
)

type ContentHandler struct {
	fetcher *service.PageFetcher
	logos   *service.LogoService
	crawler *service.SiteCrawler
}

func NewContentHandler(fetcher *service.PageFetcher, logos *service.LogoService, crawler *service.SiteCrawler) *ContentHandler {
	return &ContentHandler{fetcher: fetcher, logos: logos, crawler: crawler}
}

// Crawl handles GET /api/crawl?url=
// Returns the fetched page body verbatim.
func (h *ContentHandler) Crawl(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	log.Info().Str("url", url).Msg("Crawling URL")

	page, err := h.fetcher.Fetch(c.Request.Context(), url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Crawling error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to crawl URL",
			"details": err.Error(),
		})
		return
	}

	contentType := page.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, page.Body)
}

// Logo handles GET /api/logo?domain=
// Always answers with {logo_url, brand_colors}, empty when nothing was found.
func (h *ContentHandler) Logo(c *gin.Context) {
	domain := strings.TrimSpace(c.Query("domain"))
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domain parameter is required"})
		return
	}

	c.JSON(http.StatusOK, h.logos.Lookup(c.Request.Context(), domain))
}

// CrawlSite handles POST /api/crawl/site
// Runs the full company crawl: branding, blog posts, about text, summary.
func (h *ContentHandler) CrawlSite(c *gin.Context) {
	var req struct {
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "domain is required"})
		return
	}

	result, err := h.crawler.Crawl(c.Request.Context(), req.Domain)
	if err != nil {
		log.Error().Err(err).Str("domain", req.Domain).Msg("Web crawling error")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to crawl website",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
