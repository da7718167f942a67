package riskdata

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"
)

// Compile-time check that SampleSource implements Source.
var _ Source = (*SampleSource)(nil)

// SampleSource generates plausible risk map data for development mode,
// standing in for the risk analytics upstream. Output is deterministic
// per map type so the dashboard is stable across reloads.
type SampleSource struct {
	// Latency simulates upstream generation time. Zero means immediate.
	Latency time.Duration
}

// NewSampleSource creates a sample source with a small simulated latency.
func NewSampleSource() *SampleSource {
	return &SampleSource{Latency: 150 * time.Millisecond}
}

var sampleFactors = map[MapType][]string{
	MapGeneral:    {"debt service coverage", "revenue stability", "industry exposure", "payment history", "legal standing"},
	MapEquipment:  {"collateral depreciation", "equipment utilization", "debt service coverage", "vendor concentration", "payment history"},
	MapRealEstate: {"loan to value", "occupancy rate", "market liquidity", "debt service coverage", "title standing"},
}

func (s *SampleSource) Fetch(ctx context.Context, typ MapType) (*RiskData, error) {
	names, ok := sampleFactors[typ]
	if !ok {
		return nil, ErrUnknownMapType
	}

	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(typ))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	trends := []string{"rising", "stable", "falling"}
	factors := make([]Factor, len(names))
	weight := 1.0 / float64(len(names))
	total := 0.0
	for i, name := range names {
		score := 20 + rng.Float64()*60
		factors[i] = Factor{
			Name:   name,
			Score:  score,
			Weight: weight,
			Trend:  trends[rng.Intn(len(trends))],
		}
		total += score * weight
	}

	summary := "moderate risk profile"
	switch {
	case total < 35:
		summary = "low risk profile"
	case total > 60:
		summary = "elevated risk profile"
	}

	return &RiskData{
		Type:        typ,
		OverallRisk: total,
		Factors:     factors,
		Summary:     summary,
		GeneratedAt: time.Now(),
	}, nil
}
