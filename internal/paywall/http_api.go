package paywall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lendiq/riskcore/internal/circuitbreaker"
	"github.com/lendiq/riskcore/internal/retry"
)

const reportUpstream = "report_api"

// Compile-time check that HTTPReportAPI implements ReportAPI.
var _ ReportAPI = (*HTTPReportAPI)(nil)

// HTTPReportAPI fetches full report details from the report collaborator.
// Transient failures are retried with backoff behind a circuit breaker.
type HTTPReportAPI struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
}

// NewHTTPReportAPI creates a client calling the collaborator at baseURL.
func NewHTTPReportAPI(baseURL string) *HTTPReportAPI {
	return &HTTPReportAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: circuitbreaker.New(5, 30*time.Second),
		retry:   retry.DefaultConfig(),
	}
}

func (a *HTTPReportAPI) FetchFullReport(ctx context.Context, transactionID, riskMapType string) (*ReportDetails, error) {
	if !a.breaker.Allow(reportUpstream) {
		return nil, fmt.Errorf("report upstream unavailable (circuit open)")
	}

	var details ReportDetails
	err := retry.Do(ctx, a.retry, func() error {
		return a.fetchOnce(ctx, transactionID, riskMapType, &details)
	})
	if err != nil {
		a.breaker.RecordFailure(reportUpstream)
		return nil, err
	}
	a.breaker.RecordSuccess(reportUpstream)
	return &details, nil
}

func (a *HTTPReportAPI) fetchOnce(ctx context.Context, transactionID, riskMapType string, out *ReportDetails) error {
	url := fmt.Sprintf("%s/reports/%s/%s", a.baseURL, transactionID, riskMapType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("build report request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("report upstream: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return fmt.Errorf("report upstream returned %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("report upstream returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode report response: %w", err)
	}
	return nil
}
