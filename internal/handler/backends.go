package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cleo-api/internal/catalog"
)

type BackendHandler struct {
	catalog *catalog.Catalog
}

func NewBackendHandler(c *catalog.Catalog) *BackendHandler {
	return &BackendHandler{catalog: c}
}

// List handles GET /api/backends
func (h *BackendHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":  h.catalog.DefaultBackend,
		"backends": h.catalog.Backends,
		"roles":    h.catalog.Roles,
	})
}

// Get handles GET /api/backends/:name
func (h *BackendHandler) Get(c *gin.Context) {
	b, ok := h.catalog.Backend(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backend not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}
