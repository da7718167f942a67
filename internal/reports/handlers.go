package reports

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for purchase history and entitlement checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new reports handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up purchase history routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports", h.List)
	r.GET("/reports/:tx/:type/status", h.Status)
}

// List handles GET /v1/reports
// Query params: active=1 filters to unexpired purchases; cursor and limit
// page through the history.
func (h *Handler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "1" || c.Query("active") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	page, err := h.service.ListPage(c.Request.Context(), c.Query("cursor"), limit, activeOnly)
	if err != nil {
		if err.Error() == "invalid cursor" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_cursor",
				"message": "cursor is malformed",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases":  page.Records,
		"count":      len(page.Records),
		"nextCursor": page.NextCursor,
		"hasMore":    page.HasMore,
	})
}

// Status handles GET /v1/reports/:tx/:type/status
func (h *Handler) Status(c *gin.Context) {
	owned, err := h.service.IsPurchased(c.Request.Context(), c.Param("tx"), c.Param("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionId": c.Param("tx"),
		"riskMapType":   c.Param("type"),
		"purchased":     owned,
	})
}
