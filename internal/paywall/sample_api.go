package paywall

import (
	"context"
	"fmt"
	"time"
)

// Compile-time check that SampleReportAPI implements ReportAPI.
var _ ReportAPI = (*SampleReportAPI)(nil)

// SampleReportAPI stands in for the report collaborator in development
// mode, producing a canned narrative after a short delay.
type SampleReportAPI struct {
	Latency time.Duration
}

// NewSampleReportAPI creates a sample report API with a small simulated latency.
func NewSampleReportAPI() *SampleReportAPI {
	return &SampleReportAPI{Latency: 200 * time.Millisecond}
}

func (s *SampleReportAPI) FetchFullReport(ctx context.Context, transactionID, riskMapType string) (*ReportDetails, error) {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &ReportDetails{
		TransactionID: transactionID,
		RiskMapType:   riskMapType,
		Narrative: fmt.Sprintf(
			"Detailed %s risk assessment for transaction %s. Exposure is concentrated in debt service coverage; see findings.",
			riskMapType, transactionID,
		),
		Findings: []string{
			"debt service coverage below sector median",
			"no open legal proceedings on record",
			"stable twelve-month payment history",
		},
		PreparedAt: time.Now(),
	}, nil
}
