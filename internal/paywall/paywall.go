// Package paywall gates premium risk reports behind the credit balance.
//
// A report is unlocked either by an existing unexpired entitlement or by
// consuming one credit. Purchases are idempotent per (transaction, map
// type) pair while the entitlement is active, and never leave partial
// state: no entitlement is recorded without a successful credit deduction.
package paywall

import (
	"context"
	"errors"
	"time"

	"github.com/lendiq/riskcore/internal/reports"
	"github.com/lendiq/riskcore/internal/riskdata"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// CreditLedger is the slice of the credits service the paywall needs.
type CreditLedger interface {
	Balance(ctx context.Context) (int, error)
	ConsumeOne(ctx context.Context) (bool, error)
}

// Entitlements is the slice of the reports service the paywall needs.
type Entitlements interface {
	IsPurchased(ctx context.Context, transactionID, riskMapType string) (bool, error)
	AddPurchase(ctx context.Context, transactionID, riskMapType string) (*reports.PurchasedReport, error)
}

// RiskDataProvider fetches (possibly cached) risk map data.
type RiskDataProvider interface {
	Fetch(ctx context.Context, typ riskdata.MapType, force bool) (*riskdata.RiskData, error)
}

// ReportDetails is the collaborator-produced narrative report.
type ReportDetails struct {
	TransactionID string    `json:"transactionId"`
	RiskMapType   string    `json:"riskMapType"`
	Narrative     string    `json:"narrative"`
	Findings      []string  `json:"findings"`
	PreparedAt    time.Time `json:"preparedAt"`
}

// ReportAPI is the external collaborator producing full report details.
type ReportAPI interface {
	FetchFullReport(ctx context.Context, transactionID, riskMapType string) (*ReportDetails, error)
}

// PurchaseResult describes the outcome of a purchase attempt.
type PurchaseResult struct {
	Purchased     bool                     `json:"purchased"`
	AlreadyOwned  bool                     `json:"alreadyOwned"`
	Record        *reports.PurchasedReport `json:"record,omitempty"`
	CreditsLeft   int                      `json:"creditsLeft"`
}

// FullReport merges the risk map data with the collaborator report.
type FullReport struct {
	TransactionID string                 `json:"transactionId"`
	RiskMapType   string                 `json:"riskMapType"`
	RiskData      *riskdata.RiskData     `json:"riskData"`
	Details       *ReportDetails         `json:"details"`
}

// Publisher receives domain events for live dashboard updates.
type Publisher interface {
	Publish(event string, payload any)
}
