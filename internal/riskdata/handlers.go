package riskdata

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for risk map data.
type Handler struct {
	cache *Cache
}

// NewHandler creates a new risk data handler.
func NewHandler(cache *Cache) *Handler {
	return &Handler{cache: cache}
}

// RegisterRoutes sets up risk map routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/riskmap/:type", h.GetRiskMap)
	r.DELETE("/riskmap/cache", h.ClearCache)
}

// GetRiskMap handles GET /v1/riskmap/:type (?force=1 bypasses the cache)
func (h *Handler) GetRiskMap(c *gin.Context) {
	typ, err := ParseMapType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unknown_map_type",
			"message": err.Error(),
		})
		return
	}

	force := c.Query("force") == "1" || c.Query("force") == "true"

	data, err := h.cache.Fetch(c.Request.Context(), typ, force)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			// Superseded by a newer request; the client should retry.
			c.JSON(http.StatusConflict, gin.H{
				"error":   "superseded",
				"message": "Fetch was superseded by a newer request",
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "upstream_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"riskData": data})
}

// ClearCache handles DELETE /v1/riskmap/cache
func (h *Handler) ClearCache(c *gin.Context) {
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
