package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lendiq/riskcore/internal/logging"
)

// Service provides entitlement checks over the purchase history.
type Service struct {
	store Store
}

// NewService creates a new entitlement service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// IsPurchased reports whether an unexpired purchase exists for the
// (transaction, risk map type) pair. Expired records are ignored but a
// later re-purchase of the same pair counts.
func (s *Service) IsPurchased(ctx context.Context, transactionID, riskMapType string) (bool, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return false, fmt.Errorf("check entitlement: %w", err)
	}

	now := time.Now()
	for _, rec := range recs {
		if rec.TransactionID == transactionID && rec.RiskMapType == riskMapType && rec.Active(now) {
			return true, nil
		}
	}
	return false, nil
}

// AddPurchase records a new purchase valid for EntitlementTTL and returns it.
func (s *Service) AddPurchase(ctx context.Context, transactionID, riskMapType string) (*PurchasedReport, error) {
	now := time.Now()
	rec := &PurchasedReport{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		RiskMapType:   riskMapType,
		PurchaseDate:  now,
		ExpiryDate:    now.Add(EntitlementTTL),
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	logging.L(ctx).Info("report purchased",
		"transaction_id", transactionID,
		"risk_map_type", riskMapType,
		"expiry", rec.ExpiryDate,
	)
	return rec, nil
}

// ListAll returns the full purchase history, expired records included.
func (s *Service) ListAll(ctx context.Context) ([]*PurchasedReport, error) {
	return s.store.List(ctx)
}

// ListPage returns one page of purchase history after the given cursor.
// activeOnly filters to purchases that still grant access.
func (s *Service) ListPage(ctx context.Context, cursorStr string, limit int, activeOnly bool) (*Page, error) {
	cursor, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, err
	}

	var recs []*PurchasedReport
	if activeOnly {
		recs, err = s.ListActive(ctx)
	} else {
		recs, err = s.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return paginate(recs, cursor, limit), nil
}

// ListActive returns only the purchases that still grant access.
func (s *Service) ListActive(ctx context.Context) ([]*PurchasedReport, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := recs[:0:0]
	for _, rec := range recs {
		if rec.Active(now) {
			active = append(active, rec)
		}
	}
	return active, nil
}
