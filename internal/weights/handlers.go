package weights

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for the risk lab weight configurator.
type Handler struct {
	registry *Registry
}

// NewHandler creates a new weights handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes sets up weight configurator routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/weights/:loanType", h.GetWeights)
	r.PUT("/weights/:loanType/:category", h.SetWeight)
	r.POST("/weights/:loanType/reset", h.Reset)
}

// SetWeightRequest is the request body for adjusting a category weight.
type SetWeightRequest struct {
	Value *int `json:"value" binding:"required"`
}

// GetWeights handles GET /v1/weights/:loanType
func (h *Handler) GetWeights(c *gin.Context) {
	d, err := h.registry.Get(LoanType(c.Param("loanType")))
	if err != nil {
		writeWeightsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loanType": d.LoanType(),
		"weights":  d.Weights(),
		"total":    d.Total(),
	})
}

// SetWeight handles PUT /v1/weights/:loanType/:category
func (h *Handler) SetWeight(c *gin.Context) {
	var req SetWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Value is required",
		})
		return
	}

	d, err := h.registry.Get(LoanType(c.Param("loanType")))
	if err != nil {
		writeWeightsError(c, err)
		return
	}

	if err := d.SetWeight(c.Param("category"), *req.Value); err != nil {
		writeWeightsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loanType": d.LoanType(),
		"weights":  d.Weights(),
		"total":    d.Total(),
	})
}

// Reset handles POST /v1/weights/:loanType/reset
func (h *Handler) Reset(c *gin.Context) {
	lt := LoanType(c.Param("loanType"))
	d, err := h.registry.Get(lt)
	if err != nil {
		writeWeightsError(c, err)
		return
	}
	if err := d.Reset(lt); err != nil {
		writeWeightsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loanType": d.LoanType(),
		"weights":  d.Weights(),
		"total":    d.Total(),
	})
}

func writeWeightsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownLoanType):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "unknown_loan_type",
			"message": err.Error(),
		})
	case errors.Is(err, ErrUnknownCategory):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "unknown_category",
			"message": err.Error(),
		})
	case errors.Is(err, ErrWeightOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "weight_out_of_range",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
