// Package weights maintains the category weight configuration used by the
// risk lab to emphasize scoring categories per loan product.
//
// Weights are integer percentages constrained to sum to 100. Adjusting one
// category redistributes the difference proportionally across the other
// non-zero categories so a single tweak never zeroes out an unrelated
// category's emphasis.
package weights

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrUnknownLoanType  = errors.New("unknown loan type")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 100")
)

// LoanType selects a weight preset.
type LoanType string

const (
	LoanGeneral    LoanType = "general"
	LoanEquipment  LoanType = "equipment"
	LoanRealEstate LoanType = "realestate"
)

// Preset returns the default weight set for a loan type. Equipment and real
// estate products carry a dedicated category funded by shaving the shared
// categories, keeping the total at 100.
func Preset(lt LoanType) (map[string]int, error) {
	switch lt {
	case LoanGeneral:
		return map[string]int{
			"financial": 40,
			"cashflow":  30,
			"legal":     20,
			"market":    10,
		}, nil
	case LoanEquipment:
		return map[string]int{
			"financial": 33,
			"cashflow":  23,
			"legal":     14,
			"market":    10,
			"equipment": 20,
		}, nil
	case LoanRealEstate:
		return map[string]int{
			"financial": 35,
			"cashflow":  20,
			"legal":     15,
			"market":    5,
			"property":  25,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLoanType, lt)
	}
}

// Distributor holds the weight set for a single loan type and keeps the
// sum-to-100 invariant across adjustments.
type Distributor struct {
	mu       sync.RWMutex
	loanType LoanType
	weights  map[string]int
}

// New creates a distributor initialized with the preset for lt.
func New(lt LoanType) (*Distributor, error) {
	preset, err := Preset(lt)
	if err != nil {
		return nil, err
	}
	return &Distributor{loanType: lt, weights: preset}, nil
}

// LoanType returns the loan type the distributor was configured for.
func (d *Distributor) LoanType() LoanType {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loanType
}

// Weights returns a copy of the current weight set.
func (d *Distributor) Weights() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.weights))
	for k, v := range d.weights {
		out[k] = v
	}
	return out
}

// Total returns the current weight sum. 100 except in the degenerate
// single-adjustable-category case documented on SetWeight.
func (d *Distributor) Total() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, v := range d.weights {
		total += v
	}
	return total
}

// Reset re-initializes the distributor with the preset for lt. This is a
// direct reset, not an adjustment: it bypasses proportional redistribution.
func (d *Distributor) Reset(lt LoanType) error {
	preset, err := Preset(lt)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.loanType = lt
	d.weights = preset
	d.mu.Unlock()
	return nil
}

// SetWeight sets category to value and redistributes the difference across
// the other non-zero categories proportionally to their current share,
// flooring each at 0. Rounding drift from 100 is assigned to the single
// largest adjustable category.
//
// If no other category has weight > 0 there is nothing to redistribute
// into; the category is set directly and the sum invariant can break.
// Callers hitting that state are expected to Reset.
func (d *Distributor) SetWeight(category string, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: %d", ErrWeightOutOfRange, value)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	old, ok := d.weights[category]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	delta := value - old
	if delta == 0 {
		return nil
	}

	var adjustable []string
	adjustableTotal := 0
	for k, v := range d.weights {
		if k != category && v > 0 {
			adjustable = append(adjustable, k)
			adjustableTotal += v
		}
	}

	d.weights[category] = value
	if len(adjustable) == 0 {
		return nil
	}

	// Proportional redistribution of -delta across the adjustable set.
	for _, k := range adjustable {
		share := float64(d.weights[k]) / float64(adjustableTotal)
		next := int(math.Round(float64(d.weights[k]) - float64(delta)*share))
		if next < 0 {
			next = 0
		}
		d.weights[k] = next
	}

	// Rounding can drift the total off 100; park the residual on the
	// largest adjustable category (lexicographic tie-break for determinism).
	total := 0
	for _, v := range d.weights {
		total += v
	}
	if residual := 100 - total; residual != 0 {
		sort.Strings(adjustable)
		largest := adjustable[0]
		for _, k := range adjustable[1:] {
			if d.weights[k] > d.weights[largest] {
				largest = k
			}
		}
		next := d.weights[largest] + residual
		if next < 0 {
			next = 0
		}
		d.weights[largest] = next
	}

	return nil
}

// Normalized returns the weight set as fractional shares of the total,
// for use as multipliers by the scoring dashboard.
func (d *Distributor) Normalized() map[string]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	total := 0
	for _, v := range d.weights {
		total += v
	}
	out := make(map[string]float64, len(d.weights))
	if total == 0 {
		return out
	}
	for k, v := range d.weights {
		out[k] = float64(v) / float64(total)
	}
	return out
}
