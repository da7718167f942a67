// Package scoring computes normalized credit risk scores from weighted
// criteria assessments.
//
// Each criterion is assessed against a company's submitted and connected
// data (financials, cash flow, legal standing) and lands on one of three
// outcomes. Outcomes map to points; the profile score is the point total
// normalized against the best achievable total for the criteria set.
package scoring

import (
	"errors"
	"math"
	"time"
)

var (
	ErrNoCriteria     = errors.New("criteria set is empty")
	ErrUnknownOutcome = errors.New("unknown criterion outcome")
)

// Outcome is the assessed result of a single criterion.
type Outcome string

const (
	OutcomeGood     Outcome = "good"
	OutcomeAverage  Outcome = "average"
	OutcomeNegative Outcome = "negative"
)

// Point contributions per outcome. A criterion can at best contribute
// +2 and at worst −1, so the maximum achievable total is 2·N.
const (
	pointsGood     = 2
	pointsAverage  = 0
	pointsNegative = -1
)

// Criterion is a single assessed data point on a company profile.
// Immutable once assessed.
type Criterion struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Outcome    Outcome `json:"outcome"`
	DataSource string  `json:"dataSource,omitempty"`
}

// Points returns the score contribution of the criterion's outcome.
func (c Criterion) Points() (int, error) {
	switch c.Outcome {
	case OutcomeGood:
		return pointsGood, nil
	case OutcomeAverage:
		return pointsAverage, nil
	case OutcomeNegative:
		return pointsNegative, nil
	default:
		return 0, ErrUnknownOutcome
	}
}

// CalculateScore computes the normalized score for a criteria set:
// round(sum(points) / (2·N) · 100).
//
// Criteria-heavy negative profiles can push the raw total below zero;
// the result is deliberately not clamped, so a profile can score
// negative. Callers that want a 0..100 display range clamp themselves.
func CalculateScore(criteria []Criterion) (int, error) {
	if len(criteria) == 0 {
		return 0, ErrNoCriteria
	}

	raw := 0
	for _, c := range criteria {
		pts, err := c.Points()
		if err != nil {
			return 0, err
		}
		raw += pts
	}

	maxPossible := len(criteria) * 2
	return int(math.Round(float64(raw) / float64(maxPossible) * 100)), nil
}

// MaxPossibleScore returns the best achievable raw point total for a
// criteria set of the given size.
func MaxPossibleScore(n int) int {
	return n * 2
}

// Recommendation bands for an assessed profile.
const (
	RecommendApprove = "approve"
	RecommendReview  = "review"
	RecommendDecline = "decline"
)

// Score thresholds for recommendation bands.
const (
	approveThreshold = 70
	reviewThreshold  = 40
)

// Assessment is the full scoring result for a company profile.
type Assessment struct {
	TotalScore       int            `json:"totalScore"`
	MaxPossibleScore int            `json:"maxPossibleScore"`
	Recommendation   string         `json:"recommendation"`
	CategoryScores   map[string]int `json:"categoryScores"`
	CriteriaCount    int            `json:"criteriaCount"`
	NegativeCount    int            `json:"negativeCount"`
	AssessedAt       time.Time      `json:"assessedAt"`
}

// Assess scores a criteria set and derives the recommendation band plus
// per-category raw subtotals.
func Assess(criteria []Criterion) (*Assessment, error) {
	score, err := CalculateScore(criteria)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]int)
	negatives := 0
	for _, c := range criteria {
		pts, _ := c.Points() // validated by CalculateScore
		byCategory[c.Category] += pts
		if c.Outcome == OutcomeNegative {
			negatives++
		}
	}

	rec := RecommendDecline
	switch {
	case score >= approveThreshold:
		rec = RecommendApprove
	case score >= reviewThreshold:
		rec = RecommendReview
	}

	return &Assessment{
		TotalScore:       score,
		MaxPossibleScore: MaxPossibleScore(len(criteria)),
		Recommendation:   rec,
		CategoryScores:   byCategory,
		CriteriaCount:    len(criteria),
		NegativeCount:    negatives,
		AssessedAt:       time.Now(),
	}, nil
}
