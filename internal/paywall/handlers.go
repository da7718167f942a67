package paywall

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendiq/riskcore/internal/riskdata"
)

// Handler provides HTTP endpoints for report purchase and retrieval.
type Handler struct {
	service *Service
}

// NewHandler creates a new paywall handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up report purchase routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reports/:tx/:type/purchase", h.Purchase)
	r.GET("/reports/:tx/:type/full", h.FullReport)
}

// Purchase handles POST /v1/reports/:tx/:type/purchase
func (h *Handler) Purchase(c *gin.Context) {
	result, err := h.service.PurchaseReport(c.Request.Context(), c.Param("tx"), c.Param("type"))
	if err != nil {
		writePaywallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchase": result})
}

// FullReport handles GET /v1/reports/:tx/:type/full
func (h *Handler) FullReport(c *gin.Context) {
	report, err := h.service.FetchFullRiskReport(c.Request.Context(), c.Param("tx"), c.Param("type"))
	if err != nil {
		writePaywallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func writePaywallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "insufficient_credits",
			"message": "No credits available; top up to unlock this report",
		})
	case errors.Is(err, riskdata.ErrUnknownMapType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unknown_map_type",
			"message": err.Error(),
		})
	case errors.Is(err, riskdata.ErrAborted):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "superseded",
			"message": "Fetch was superseded by a newer request",
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "upstream_error",
			"message": err.Error(),
		})
	}
}
