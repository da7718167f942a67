package credits

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for credit operations.
type Handler struct {
	ledger *Ledger
	topup  *TopUpService // nil when no payment provider is configured
}

// NewHandler creates a new credits handler.
func NewHandler(ledger *Ledger, topup *TopUpService) *Handler {
	return &Handler{ledger: ledger, topup: topup}
}

// RegisterRoutes sets up credit routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/credits", h.GetBalance)
	r.GET("/credits/packs", h.ListPacks)
	r.POST("/credits/topup", h.TopUp)
	r.POST("/credits/topup/checkout", h.Checkout)
	r.POST("/credits/topup/confirm", h.Confirm)
}

// GetBalance handles GET /v1/credits
func (h *Handler) GetBalance(c *gin.Context) {
	bal, err := h.ledger.Balance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableCredits": bal})
}

// ListPacks handles GET /v1/credits/packs
func (h *Handler) ListPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": ListPacks()})
}

// TopUp handles POST /v1/credits/topup (direct credit grant, no payment)
func (h *Handler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Amount is required",
		})
		return
	}

	bal, err := h.ledger.Add(c.Request.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_amount",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"availableCredits": bal})
}

// Checkout handles POST /v1/credits/topup/checkout
func (h *Handler) Checkout(c *gin.Context) {
	if h.topup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "payments_disabled",
			"message": "No payment provider configured",
		})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Pack is required",
		})
		return
	}

	payment, err := h.topup.Checkout(c.Request.Context(), req.Pack)
	if err != nil {
		if errors.Is(err, ErrUnknownPack) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "unknown_pack",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "payment_provider_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// Confirm handles POST /v1/credits/topup/confirm
func (h *Handler) Confirm(c *gin.Context) {
	if h.topup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "payments_disabled",
			"message": "No payment provider configured",
		})
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "PaymentId is required",
		})
		return
	}

	bal, err := h.topup.Confirm(c.Request.Context(), req.PaymentID)
	if err != nil {
		status := http.StatusBadGateway
		code := "payment_provider_error"
		switch {
		case errors.Is(err, ErrAlreadyCredited):
			status = http.StatusConflict
			code = "already_credited"
		case errors.Is(err, ErrPaymentIncomplete):
			status = http.StatusPaymentRequired
			code = "payment_incomplete"
		}
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"availableCredits": bal})
}
