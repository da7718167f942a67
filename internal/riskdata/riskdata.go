// Package riskdata fetches and caches the risk map data shown on the
// scoring dashboard.
//
// Risk map generation is expensive upstream, so the package keeps a
// single-slot cache of the most recently viewed map type. Concurrent
// requests for the same type share one upstream fetch, and switching the
// dashboard to a different type cancels the stale in-flight fetch so a
// late response can never overwrite fresher data.
package riskdata

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAborted        = errors.New("risk data fetch aborted")
	ErrUnknownMapType = errors.New("unknown risk map type")
)

// MapType identifies a risk map variant, one per loan product.
type MapType string

const (
	MapGeneral    MapType = "general"
	MapEquipment  MapType = "equipment"
	MapRealEstate MapType = "realestate"
)

// ParseMapType validates a map type string.
func ParseMapType(s string) (MapType, error) {
	switch MapType(s) {
	case MapGeneral, MapEquipment, MapRealEstate:
		return MapType(s), nil
	default:
		return "", ErrUnknownMapType
	}
}

// Factor is a single named risk dimension on the map.
type Factor struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"` // 0..100, higher is riskier
	Weight float64 `json:"weight"`
	Trend  string  `json:"trend"` // rising, stable, falling
}

// RiskData is one generated risk map.
type RiskData struct {
	Type        MapType   `json:"type"`
	OverallRisk float64   `json:"overallRisk"`
	Factors     []Factor  `json:"factors"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Source produces risk map data. Production sources call the risk
// analytics upstream; a deterministic sample source ships for
// development mode. Implementations must honor ctx cancellation.
type Source interface {
	Fetch(ctx context.Context, typ MapType) (*RiskData, error)
}
