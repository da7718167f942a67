// Package reports tracks which premium risk reports have been purchased.
//
// A purchase entitles the buyer to one (transaction, risk map type) report
// for 30 days. Records are append-only: expired purchases stay in storage
// as purchase history but no longer grant access.
package reports

import (
	"context"
	"errors"
	"time"
)

var ErrUnknownMapType = errors.New("unknown risk map type")

// EntitlementTTL is how long a purchase grants access to a report.
const EntitlementTTL = 30 * 24 * time.Hour

// PurchasedReport is a single purchase record.
type PurchasedReport struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	RiskMapType   string    `json:"riskMapType"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	ExpiryDate    time.Time `json:"expiryDate"`
}

// Active reports whether the purchase still grants access at t.
func (p *PurchasedReport) Active(t time.Time) bool {
	return t.Before(p.ExpiryDate)
}

// Store persists purchase records. Records are never deleted.
type Store interface {
	Append(ctx context.Context, rec *PurchasedReport) error
	List(ctx context.Context) ([]*PurchasedReport, error)
}
