package scoring

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lendiq/riskcore/internal/metrics"
)

// Handler provides HTTP endpoints for the scoring engine.
type Handler struct{}

// NewHandler creates a new scoring handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes sets up scoring routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/score", h.Score)
	r.POST("/score/profile", h.AssessProfile)
}

// ScoreRequest is the request body for both scoring endpoints.
type ScoreRequest struct {
	Criteria []Criterion `json:"criteria" binding:"required"`
}

// Score handles POST /v1/score
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Criteria are required",
		})
		return
	}

	score, err := CalculateScore(req.Criteria)
	if err != nil {
		writeScoringError(c, err)
		return
	}

	metrics.ScoresComputedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"totalScore":       score,
		"maxPossibleScore": MaxPossibleScore(len(req.Criteria)),
	})
}

// AssessProfile handles POST /v1/score/profile
func (h *Handler) AssessProfile(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Criteria are required",
		})
		return
	}

	assessment, err := Assess(req.Criteria)
	if err != nil {
		writeScoringError(c, err)
		return
	}

	metrics.ScoresComputedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"assessment": assessment})
}

func writeScoringError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoCriteria):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "empty_criteria",
			"message": "At least one criterion is required",
		})
	case errors.Is(err, ErrUnknownOutcome):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unknown_outcome",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
