package riskdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lendiq/riskcore/internal/circuitbreaker"
	"github.com/lendiq/riskcore/internal/retry"
)

const riskUpstream = "risk_api"

// Compile-time check that HTTPSource implements Source.
var _ Source = (*HTTPSource)(nil)

// HTTPSource fetches risk map data from the risk analytics upstream.
// Transient failures are retried with backoff; repeated failures trip a
// circuit breaker so a down upstream fails fast.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
}

// NewHTTPSource creates a source calling the upstream at baseURL.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: circuitbreaker.New(5, 30*time.Second),
		retry:   retry.DefaultConfig(),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, typ MapType) (*RiskData, error) {
	if !s.breaker.Allow(riskUpstream) {
		return nil, fmt.Errorf("risk map upstream unavailable (circuit open)")
	}

	var data RiskData
	err := retry.Do(ctx, s.retry, func() error {
		return s.fetchOnce(ctx, typ, &data)
	})
	if err != nil {
		s.breaker.RecordFailure(riskUpstream)
		return nil, err
	}
	s.breaker.RecordSuccess(riskUpstream)
	return &data, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, typ MapType, out *RiskData) error {
	url := fmt.Sprintf("%s/riskmaps/%s", s.baseURL, typ)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("build risk map request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("risk map upstream: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return fmt.Errorf("risk map upstream returned %d", resp.StatusCode)
	default:
		// Client errors will not get better on retry.
		return retry.Permanent(fmt.Errorf("risk map upstream returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode risk map response: %w", err)
	}
	return nil
}
